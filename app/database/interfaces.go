package database

import (
	"context"

	"github.com/lysyi3m/category-comb/app/catalog"
)

type CategoryRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *catalog.Snapshot) error
	LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error)
	GetSnapshotHistory(ctx context.Context, limit int) ([]SnapshotInfo, error)
}
