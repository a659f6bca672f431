package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Snapshot != "./data/pool.json" {
		t.Fatalf("snapshot default: %s", cfg.Snapshot)
	}
	if cfg.AuditLog != "./data/audit.jsonl" {
		t.Fatalf("audit-log default: %s", cfg.AuditLog)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log-level default: %s", cfg.LogLevel)
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("snapshot", "./data/pool.json", "")
	flags.String("pg-dsn", "", "")
	if err := flags.Set("snapshot", "/tmp/other.json"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := flags.Set("pg-dsn", "postgres://localhost/pool"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Snapshot != "/tmp/other.json" {
		t.Fatalf("snapshot: %s", cfg.Snapshot)
	}
	if cfg.PGDSN != "postgres://localhost/pool" {
		t.Fatalf("pg-dsn: %s", cfg.PGDSN)
	}
}

func TestLoadPoolDefaults(t *testing.T) {
	cfg, err := LoadPool("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FeePips != 3000 {
		t.Fatalf("fee default: %d", cfg.FeePips)
	}
	if cfg.SearchWindow != 1024 {
		t.Fatalf("search-window default: %d", cfg.SearchWindow)
	}
	if cfg.ResetTicks {
		t.Fatalf("reset-ticks should default to false")
	}
}
