package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"clpool/internal/config"
	"clpool/internal/pool"
	"clpool/internal/storage"
	"clpool/internal/tickmath"
)

func main() {
	root := &cobra.Command{
		Use:          "poolctl",
		Short:        "Concentrated-liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("snapshot", "./data/pool.json", "pool snapshot path")
	root.PersistentFlags().String("audit-log", "./data/audit.jsonl", "audit JSONL path")
	root.PersistentFlags().String("pg-dsn", "", "optional Postgres DSN for audit and snapshot persistence")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new pool",
		RunE:  runInit,
	}
	initCmd.Flags().String("token0", "", "token0 address")
	initCmd.Flags().String("token1", "", "token1 address")
	initCmd.Flags().Uint32("fee", 3000, "swap fee in pips (parts per million)")
	initCmd.Flags().Int32("search-window", 1024, "tick search window per swap step")
	initCmd.Flags().Bool("reset-ticks", false, "clear tick initialized flag when gross liquidity reaches zero")
	initCmd.Flags().Int32("tick", 0, "initial tick")
	initCmd.Flags().Bool("force", false, "overwrite an existing snapshot")
	root.AddCommand(initCmd)

	root.AddCommand(fundCmd(), mintCmd(), burnCmd(), swapCmd(), reportCmd())

	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Print the pool snapshot",
		RunE:  runState,
	}
	root.AddCommand(stateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	poolCfg, err := config.LoadPool(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	token0, err := parseAddress(poolCfg.Token0)
	if err != nil {
		return fmt.Errorf("token0: %w", err)
	}
	token1, err := parseAddress(poolCfg.Token1)
	if err != nil {
		return fmt.Errorf("token1: %w", err)
	}

	store := &storage.FileSnapshotStore{Path: cfg.Snapshot}
	if _, found, err := store.Load(); err != nil {
		return err
	} else if found {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			return fmt.Errorf("snapshot %s already exists (use --force to overwrite)", cfg.Snapshot)
		}
	}

	sqrtPrice, err := tickmath.SqrtPriceAtTick(poolCfg.Tick)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	a.pool, err = pool.New(pool.Config{
		Token0:           token0,
		Token1:           token1,
		FeePips:          poolCfg.FeePips,
		SearchWindow:     poolCfg.SearchWindow,
		ResetTickOnEmpty: poolCfg.ResetTicks,
	}, sqrtPrice, a.vault, a.shares, a.audit, logger)
	if err != nil {
		return err
	}

	logger.Info("pool initialized",
		zap.String("token0", poolCfg.Token0),
		zap.String("token1", poolCfg.Token1),
		zap.Uint32("fee_pips", poolCfg.FeePips),
		zap.Int32("tick", poolCfg.Tick),
		zap.String("sqrt_price_x96", sqrtPrice.Dec()),
	)

	return a.save()
}

func runState(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	snap := a.snapshot()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

var errNotInitialized = errors.New("pool is not initialized (run poolctl init)")

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
