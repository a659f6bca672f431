package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clpool/internal/config"
	"clpool/internal/custody"
	"clpool/internal/model"
	"clpool/internal/pool"
	"clpool/internal/shares"
	"clpool/internal/storage"
	"clpool/internal/storage/postgres"
)

// app wires the pool engine to its collaborators and persistence for one
// command invocation. Vault balances and share balances live in the snapshot
// alongside the pool state so the simulator is self-contained.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	vault  *custody.Vault
	shares *shares.Ledger
	store  *storage.FileSnapshotStore
	pg     *postgres.Store
	audit  pool.AuditSink
	pool   *pool.Pool
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		vault:  custody.NewVault(),
		shares: shares.NewLedger(),
		store:  &storage.FileSnapshotStore{Path: cfg.Snapshot},
	}

	sinks := []pool.AuditSink{storage.NewJsonlAuditLog(cfg.AuditLog)}
	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(context.Background(), cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pg = pg
		sinks = append(sinks, pgAuditSink{store: pg, logger: logger})
	}
	a.audit = teeSink(sinks)

	return a, nil
}

// openApp loads config, restores the snapshot, and rebuilds the pool.
func openApp(cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return nil, err
	}

	snap, found, err := a.store.Load()
	if err != nil {
		a.close()
		return nil, err
	}
	if !found {
		a.close()
		return nil, errNotInitialized
	}

	token0 := common.HexToAddress(snap.Token0)
	token1 := common.HexToAddress(snap.Token1)
	for _, account := range snap.Accounts {
		addr := common.HexToAddress(account.Address)
		bal0, err := parseUint256(account.Balance0)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("account %s balance0: %w", account.Address, err)
		}
		bal1, err := parseUint256(account.Balance1)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("account %s balance1: %w", account.Address, err)
		}
		sh, err := parseUint256(account.Shares)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("account %s shares: %w", account.Address, err)
		}
		a.vault.SetBalance(addr, token0, bal0)
		a.vault.SetBalance(addr, token1, bal1)
		if !sh.IsZero() {
			if err := a.shares.Mint(addr, sh); err != nil {
				a.close()
				return nil, err
			}
		}
	}

	a.pool, err = pool.FromSnapshot(snap, a.vault, a.shares, a.audit, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

// snapshot merges pool state with the collaborator account balances.
func (a *app) snapshot() model.Snapshot {
	snap := a.pool.Snapshot()
	cfg := a.pool.Config()

	accounts := make(map[common.Address]*model.AccountSnapshot)
	get := func(addr common.Address) *model.AccountSnapshot {
		account, ok := accounts[addr]
		if !ok {
			account = &model.AccountSnapshot{
				Address:  addr.Hex(),
				Balance0: "0",
				Balance1: "0",
				Shares:   "0",
			}
			accounts[addr] = account
		}
		return account
	}

	a.vault.EachBalance(func(addr, token common.Address, amount *uint256.Int) {
		switch token {
		case cfg.Token0:
			get(addr).Balance0 = amount.Dec()
		case cfg.Token1:
			get(addr).Balance1 = amount.Dec()
		}
	})
	a.shares.Each(func(addr common.Address, balance *uint256.Int) {
		get(addr).Shares = balance.Dec()
	})

	for _, account := range accounts {
		snap.Accounts = append(snap.Accounts, *account)
	}
	sort.Slice(snap.Accounts, func(i, j int) bool {
		return snap.Accounts[i].Address < snap.Accounts[j].Address
	})

	return snap
}

func (a *app) save() error {
	snap := a.snapshot()
	if err := a.store.Save(snap); err != nil {
		return err
	}
	if a.pg != nil {
		err := withRetry(context.Background(), a.logger, pgMaxRetries, pgRetryBackoff, func(ctx context.Context) error {
			return a.pg.UpsertSnapshot(ctx, snap)
		})
		if err != nil {
			return fmt.Errorf("persist snapshot to postgres: %w", err)
		}
	}
	return nil
}

func (a *app) close() {
	if a.pg != nil {
		a.pg.Close()
	}
}

// teeSink fans one audit record out to every configured sink.
type teeSink []pool.AuditSink

func (t teeSink) Record(record model.AuditRecord) error {
	for _, sink := range t {
		if err := sink.Record(record); err != nil {
			return err
		}
	}
	return nil
}

const (
	pgMaxRetries   = 3
	pgRetryBackoff = 200 * time.Millisecond
)

type pgAuditSink struct {
	store  *postgres.Store
	logger *zap.Logger
}

func (s pgAuditSink) Record(record model.AuditRecord) error {
	return withRetry(context.Background(), s.logger, pgMaxRetries, pgRetryBackoff, func(ctx context.Context) error {
		return s.store.InsertAuditRecords(ctx, []model.AuditRecord{record})
	})
}

func parseAddress(input string) (common.Address, error) {
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address %q", input)
	}
	return common.HexToAddress(input), nil
}

func parseUint256(input string) (*uint256.Int, error) {
	if input == "" {
		return new(uint256.Int), nil
	}
	return uint256.FromDecimal(input)
}
