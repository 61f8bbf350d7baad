package database

import (
	"time"
)

type SnapshotInfo struct {
	ID            int64
	ContentHash   string
	CategoryCount int
	FetchedAt     time.Time
	CreatedAt     time.Time
}
