package storage

import (
	"os"
	"path/filepath"
	"testing"

	"clpool/internal/model"
)

func TestFileSnapshotStoreRoundTrip(t *testing.T) {
	store := &FileSnapshotStore{Path: filepath.Join(t.TempDir(), "pool.json")}

	if _, found, err := store.Load(); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	snap := model.Snapshot{
		Token0:               "0x0000000000000000000000000000000000000001",
		Token1:               "0x0000000000000000000000000000000000000002",
		FeePips:              3000,
		SearchWindow:         1024,
		SqrtPriceX96:         "79228162514264337593543950336",
		Tick:                 0,
		Liquidity:            "1000000",
		FeeGrowthGlobal0X128: "0",
		FeeGrowthGlobal1X128: "0",
		Ticks: []model.TickSnapshot{
			{Tick: -60, LiquidityGross: "1000000", LiquidityNet: "1000000", Initialized: true},
			{Tick: 60, LiquidityGross: "1000000", LiquidityNet: "-1000000", Initialized: true},
		},
		Positions: []model.PositionSnapshot{
			{Owner: "0x00000000000000000000000000000000000000aa", TickLower: -60, TickUpper: 60, Liquidity: "1000000", TokensOwed0: "0", TokensOwed1: "0"},
		},
	}

	if err := store.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, found, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatalf("snapshot not found after save")
	}
	if got.SqrtPriceX96 != snap.SqrtPriceX96 || got.Liquidity != snap.Liquidity {
		t.Fatalf("state mismatch: %+v", got)
	}
	if len(got.Ticks) != 2 || got.Ticks[1].LiquidityNet != "-1000000" {
		t.Fatalf("ticks mismatch: %+v", got.Ticks)
	}
	if got.UpdatedAt == "" {
		t.Fatalf("save should stamp updated_at")
	}

	// Save goes through a temp file; no leftover may remain.
	if _, err := os.Stat(store.Path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestFileSnapshotStoreNilReceiver(t *testing.T) {
	var store *FileSnapshotStore
	if err := store.Save(model.Snapshot{}); err != nil {
		t.Fatalf("nil store save: %v", err)
	}
	if _, found, err := store.Load(); err != nil || found {
		t.Fatalf("nil store load: found=%v err=%v", found, err)
	}
}
