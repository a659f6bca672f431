package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the storage and logging settings shared by every poolctl
// command, loaded from flags, env, or config file.
type Config struct {
	Snapshot string
	AuditLog string
	PGDSN    string
	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}

	v.SetDefault("snapshot", "./data/pool.json")
	v.SetDefault("audit-log", "./data/audit.jsonl")
	v.SetDefault("log-level", "info")

	cfg := Config{
		Snapshot: v.GetString("snapshot"),
		AuditLog: v.GetString("audit-log"),
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}

// PoolConfig holds the pool parameters used when initializing a new pool.
type PoolConfig struct {
	Token0       string
	Token1       string
	FeePips      uint32
	SearchWindow int32
	ResetTicks   bool
	Tick         int32
}

// LoadPool merges config file, environment variables, and flags into
// PoolConfig.
func LoadPool(cfgFile string, flags *pflag.FlagSet) (PoolConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PoolConfig{}, err
	}

	v.SetDefault("fee", uint32(3000))
	v.SetDefault("search-window", int32(1024))

	cfg := PoolConfig{
		Token0:       v.GetString("token0"),
		Token1:       v.GetString("token1"),
		FeePips:      v.GetUint32("fee"),
		SearchWindow: v.GetInt32("search-window"),
		ResetTicks:   v.GetBool("reset-ticks"),
		Tick:         v.GetInt32("tick"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
