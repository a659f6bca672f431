package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clpool/internal/model"
	"clpool/internal/report"
	"clpool/internal/storage"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate the audit log into window metrics",
		RunE:  runReport,
	}
	cmd.Flags().Duration("window", 5*time.Minute, "aggregation window (e.g. 1m, 5m, 1h)")
	cmd.Flags().String("out", "", "output JSONL path (empty means stdout)")
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	defer a.logger.Sync()

	window, _ := cmd.Flags().GetDuration("window")
	if window <= 0 {
		return fmt.Errorf("window must be positive")
	}

	records, err := storage.NewJsonlAuditLog(a.cfg.AuditLog).ReadAll()
	if err != nil {
		return err
	}

	cfg := a.pool.Config()
	reporter := report.NewReporter(report.Config{
		WindowSeconds: uint64(window / time.Second),
		FeePips:       cfg.FeePips,
	}, a.logger)

	metrics, err := reporter.Run(records)
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("out")
	if err := writeMetrics(outPath, metrics); err != nil {
		return err
	}

	if a.pg != nil {
		err := a.pg.UpsertWindowMetrics(context.Background(), cfg.Token0.Hex(), cfg.Token1.Hex(), cfg.FeePips, metrics)
		if err != nil {
			return fmt.Errorf("persist window metrics: %w", err)
		}
		a.logger.Info("window metrics persisted", zap.Int("windows", len(metrics)))
	}

	return nil
}

func writeMetrics(path string, metrics []model.WindowMetrics) error {
	out := os.Stdout
	if path != "" {
		dir := filepath.Dir(path)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	writer := bufio.NewWriter(out)
	for _, m := range metrics {
		line, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal metrics: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}
	return writer.Flush()
}
