package storage

import "clpool/internal/model"

// AuditLog is a sink for pool operation records.
type AuditLog interface {
	Record(record model.AuditRecord) error
}

// SnapshotStore persists and restores full pool snapshots.
type SnapshotStore interface {
	Load() (model.Snapshot, bool, error)
	Save(snap model.Snapshot) error
}
