package storage

import (
	"context"

	"safeboxAdapter/internal/model"
)

// Storage defines a sink for vault snapshots.
type Storage interface {
	PutSnapshots(ctx context.Context, snapshots []model.VaultSnapshot) error
}
