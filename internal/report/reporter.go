// Package report aggregates audit records into per-window activity metrics.
package report

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"clpool/internal/model"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	FeePips       uint32
}

// Reporter buckets audit records by timestamp window.
type Reporter struct {
	cfg    Config
	logger *zap.Logger
}

func NewReporter(cfg Config, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{cfg: cfg, logger: logger}
}

// Run aggregates the records and returns one metrics row per window, oldest
// first. Records with unparseable fields are counted and skipped.
func (r *Reporter) Run(records []model.AuditRecord) ([]model.WindowMetrics, error) {
	if r.cfg.WindowSeconds == 0 {
		return nil, fmt.Errorf("window seconds must be > 0")
	}

	windows := make(map[uint64]*Accumulator)
	var failed int
	for _, record := range records {
		ts, err := time.Parse(time.RFC3339Nano, record.Timestamp)
		if err != nil {
			failed++
			r.logger.Warn("parse audit timestamp", zap.String("timestamp", record.Timestamp), zap.Error(err))
			continue
		}

		start := windowStart(uint64(ts.Unix()), r.cfg.WindowSeconds)
		acc := windows[start]
		if acc == nil {
			acc = NewAccumulator(start, start+r.cfg.WindowSeconds)
			windows[start] = acc
		}
		if err := acc.Add(record, r.cfg.FeePips); err != nil {
			failed++
			r.logger.Warn("aggregate audit record", zap.String("kind", record.Kind), zap.Error(err))
		}
	}

	metrics := make([]model.WindowMetrics, 0, len(windows))
	for _, acc := range windows {
		metrics = append(metrics, model.WindowMetrics{
			WindowStart:  time.Unix(int64(acc.WindowStart), 0).UTC(),
			WindowEnd:    time.Unix(int64(acc.WindowEnd), 0).UTC(),
			SwapCount:    acc.SwapCount,
			MintCount:    acc.MintCount,
			BurnCount:    acc.BurnCount,
			Volume0:      acc.Volume0.String(),
			Volume1:      acc.Volume1.String(),
			Fee0:         acc.Fee0.String(),
			Fee1:         acc.Fee1.String(),
			TicksCrossed: acc.TicksCrossed,
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].WindowStart.Before(metrics[j].WindowStart)
	})

	r.logger.Info("report complete",
		zap.Int("records", len(records)),
		zap.Int("windows", len(metrics)),
		zap.Int("failed", failed),
	)

	return metrics, nil
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}
