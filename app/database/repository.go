package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/category-comb/app/catalog"
)

const DefaultSnapshotRetention = 10

var _ CategoryRepository = (*Repository)(nil)

// Repository stores category snapshots. Only the newest retention snapshots
// are kept.
type Repository struct {
	db        *DB
	retention int
}

func NewRepository(db *DB, retention int) *Repository {
	if retention < 1 {
		retention = DefaultSnapshotRetention
	}
	return &Repository{db: db, retention: retention}
}

func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *catalog.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO category_snapshots (content_hash, source_hash, category_count, fetched_at)
		VALUES (?, ?, ?, ?)
	`, snapshot.ContentHash, snapshot.SourceHash, len(snapshot.Categories), formatTime(snapshot.FetchedAt))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	snapshotID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_categories (snapshot_id, position, category_id, name, icon, slug, image)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare category insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range snapshot.Categories {
		if _, err := stmt.ExecContext(ctx, snapshotID, i, c.ID, c.Name, c.Icon, c.Slug, c.Image); err != nil {
			return fmt.Errorf("failed to insert category %s: %w", c.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM snapshot_categories WHERE snapshot_id NOT IN (
			SELECT id FROM category_snapshots ORDER BY id DESC LIMIT ?
		)
	`, r.retention); err != nil {
		return fmt.Errorf("failed to prune snapshot categories: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM category_snapshots WHERE id NOT IN (
			SELECT id FROM category_snapshots ORDER BY id DESC LIMIT ?
		)
	`, r.retention); err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot returns the newest snapshot, or nil when none is stored.
func (r *Repository) LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	var (
		snapshotID int64
		hash       string
		sourceHash string
		fetchedAt  string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, content_hash, source_hash, fetched_at
		FROM category_snapshots
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&snapshotID, &hash, &sourceHash, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	fetched, err := parseTime(fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fetched_at of snapshot %d: %w", snapshotID, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category_id, name, icon, slug, image
		FROM snapshot_categories
		WHERE snapshot_id = ?
		ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot categories: %w", err)
	}
	defer rows.Close()

	var categories []catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Slug, &c.Image); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category rows: %w", err)
	}

	return &catalog.Snapshot{
		Categories:  categories,
		ContentHash: hash,
		SourceHash:  sourceHash,
		FetchedAt:   fetched,
	}, nil
}

// GetSnapshotHistory lists stored snapshots, newest first.
func (r *Repository) GetSnapshotHistory(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, content_hash, category_count, fetched_at, created_at
		FROM category_snapshots
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot history: %w", err)
	}
	defer rows.Close()

	var history []SnapshotInfo
	for rows.Next() {
		var (
			info      SnapshotInfo
			fetchedAt string
			createdAt string
		)
		if err := rows.Scan(&info.ID, &info.ContentHash, &info.CategoryCount, &fetchedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if info.FetchedAt, err = parseTime(fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to parse fetched_at: %w", err)
		}
		if info.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		history = append(history, info)
	}

	return history, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func (r *Repository) Health(ctx context.Context) map[string]any {
	health := map[string]any{
		"status": "healthy",
		"type":   "sqlite",
	}

	if err := r.db.PingContext(ctx); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM category_snapshots`).Scan(&count); err == nil {
		health["snapshots"] = count
	}

	return health
}
