package repository

import (
	"context"

	"github.com/jwalitptl/medintern-api/internal/model"
)

// SnapshotStore persists the three collections as a unit. Save is
// all-or-nothing; Load on empty storage returns an empty snapshot.
type SnapshotStore interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, snap *model.Snapshot) error
	Close() error
}
