package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clpool/internal/model"
)

// Store provides Postgres persistence for audit records and pool snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertAuditRecords appends a batch of audit records.
func (s *Store) InsertAuditRecords(ctx context.Context, records []model.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO audit_records (
				kind, actor, tick_lower, tick_upper, zero_for_one, amount_specified,
				amount0, amount1, liquidity_delta, sqrt_price_before, sqrt_price_after,
				tick_before, tick_after, liquidity_before, liquidity_after,
				ticks_crossed, recorded_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now())
		`,
			r.Kind,
			r.Actor,
			r.TickLower,
			r.TickUpper,
			r.ZeroForOne,
			r.AmountSpecified,
			r.Amount0,
			r.Amount1,
			r.LiquidityDelta,
			r.SqrtPriceBefore,
			r.SqrtPriceAfter,
			r.TickBefore,
			r.TickAfter,
			r.LiquidityBefore,
			r.LiquidityAfter,
			r.TicksCrossed,
			r.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowMetrics inserts or updates per-window activity metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, token0, token1 string, feePips uint32, metrics []model.WindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				token0, token1, fee_pips, window_start_ts, window_end_ts,
				swap_count, mint_count, burn_count, volume0, volume1, fee0, fee1,
				ticks_crossed, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (token0, token1, fee_pips, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				mint_count = EXCLUDED.mint_count,
				burn_count = EXCLUDED.burn_count,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				fee0 = EXCLUDED.fee0,
				fee1 = EXCLUDED.fee1,
				ticks_crossed = EXCLUDED.ticks_crossed,
				updated_at = now()
		`,
			token0,
			token1,
			feePips,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.MintCount),
			int64(m.BurnCount),
			m.Volume0,
			m.Volume1,
			m.Fee0,
			m.Fee1,
			int64(m.TicksCrossed),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertSnapshot stores the latest snapshot for a pool keyed by its pair.
func (s *Store) UpsertSnapshot(ctx context.Context, snap model.Snapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pool_snapshots (
			token0, token1, fee_pips, sqrt_price_x96, tick, liquidity, snapshot, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (token0, token1, fee_pips)
		DO UPDATE SET
			sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
			tick = EXCLUDED.tick,
			liquidity = EXCLUDED.liquidity,
			snapshot = EXCLUDED.snapshot,
			updated_at = now()
	`,
		snap.Token0,
		snap.Token1,
		snap.FeePips,
		snap.SqrtPriceX96,
		snap.Tick,
		snap.Liquidity,
		snap,
	)
	return err
}

// LoadSnapshot returns the stored snapshot for a pool pair, if any.
func (s *Store) LoadSnapshot(ctx context.Context, token0, token1 string, feePips uint32) (model.Snapshot, bool, error) {
	var snap model.Snapshot
	row := s.pool.QueryRow(ctx, `
		SELECT snapshot FROM pool_snapshots
		WHERE token0=$1 AND token1=$2 AND fee_pips=$3
	`, token0, token1, feePips)
	if err := row.Scan(&snap); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, false, nil
		}
		return snap, false, err
	}
	return snap, true, nil
}
