package database

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/category-comb/app/catalog"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	return db
}

func sampleSnapshot(fetchedAt time.Time, names ...string) *catalog.Snapshot {
	categories := make([]catalog.Category, len(names))
	for i, name := range names {
		categories[i] = catalog.Category{
			ID:    fmt.Sprintf("%d", i+1),
			Name:  name,
			Icon:  "grid",
			Slug:  catalog.Slugify(name),
			Image: "https://cdn.example.com/" + catalog.Slugify(name) + ".jpg",
		}
	}
	return &catalog.Snapshot{
		Categories:  categories,
		ContentHash: catalog.ContentHash(categories),
		SourceHash:  "source-" + strings.Join(names, ","),
		FetchedAt:   fetchedAt,
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

func TestRepository_LoadEmpty(t *testing.T) {
	repo := NewRepository(newTestDB(t), 0)

	snapshot, err := repo.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t), 0)

	fetchedAt := time.Date(2025, 2, 3, 4, 5, 6, 789000000, time.UTC)
	saved := sampleSnapshot(fetchedAt, "Supplements", "Hair & Skin Care", "Baby Care")
	require.NoError(t, repo.SaveSnapshot(ctx, saved))

	loaded, err := repo.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, saved.Categories, loaded.Categories)
	assert.Equal(t, saved.ContentHash, loaded.ContentHash)
	assert.Equal(t, saved.SourceHash, loaded.SourceHash)
	assert.True(t, fetchedAt.Equal(loaded.FetchedAt))
}

func TestRepository_LoadReturnsNewest(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t), 0)

	base := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveSnapshot(ctx, sampleSnapshot(base, "Old")))
	require.NoError(t, repo.SaveSnapshot(ctx, sampleSnapshot(base.Add(time.Hour), "New", "Newer")))

	loaded, err := repo.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Categories, 2)
	assert.Equal(t, "New", loaded.Categories[0].Name)
	assert.Equal(t, "Newer", loaded.Categories[1].Name)
}

func TestRepository_Retention(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepository(db, 2)

	base := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, repo.SaveSnapshot(ctx, sampleSnapshot(base.Add(time.Duration(i)*time.Minute), fmt.Sprintf("Category %d", i))))
	}

	history, err := repo.GetSnapshotHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].CategoryCount)
	assert.True(t, history[0].FetchedAt.After(history[1].FetchedAt))
	assert.False(t, history[0].CreatedAt.IsZero())

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM snapshot_categories`).Scan(&rows))
	assert.Equal(t, 2, rows)
}

func TestRepository_Health(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t), 0)
	require.NoError(t, repo.SaveSnapshot(ctx, sampleSnapshot(time.Now(), "One")))

	health := repo.Health(ctx)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "sqlite", health["type"])
	assert.Equal(t, 1, health["snapshots"])
}
