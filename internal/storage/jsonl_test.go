package storage

import (
	"path/filepath"
	"testing"

	"clpool/internal/model"
)

func TestJsonlAuditLogAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.jsonl")
	log := NewJsonlAuditLog(path)

	records := []model.AuditRecord{
		{Kind: model.AuditMint, Actor: "0xaa", Amount0: "100", Amount1: "200", Timestamp: "2026-01-02T03:04:05Z"},
		{Kind: model.AuditSwap, Actor: "0xbb", Amount0: "50", Amount1: "-49", TicksCrossed: []int32{100, 160}, Timestamp: "2026-01-02T03:05:05Z"},
	}
	for _, record := range records {
		if err := log.Record(record); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := log.ReadAll()
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Kind != model.AuditMint || got[1].Kind != model.AuditSwap {
		t.Fatalf("kinds: %s, %s", got[0].Kind, got[1].Kind)
	}
	if len(got[1].TicksCrossed) != 2 || got[1].TicksCrossed[0] != 100 {
		t.Fatalf("ticks crossed: %v", got[1].TicksCrossed)
	}
}

func TestJsonlAuditLogMissingFile(t *testing.T) {
	log := NewJsonlAuditLog(filepath.Join(t.TempDir(), "absent.jsonl"))
	got, err := log.ReadAll()
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}
