package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/category-comb/app/catalog"
)

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "category-comb", GenerateKey())
	assert.Equal(t, "category-comb:snapshot", GenerateKey("snapshot"))
	assert.Equal(t, "category-comb:a:b", GenerateKey("a", "b"))
	assert.NotEqual(t, GenerateKey("a"), GenerateKey("b"))
}

func testSnapshot() *catalog.Snapshot {
	categories := []catalog.Category{
		{ID: "7", Name: "Protein", Icon: "grid", Slug: "protein", Image: "https://cdn.example.com/p.jpg"},
	}
	return &catalog.Snapshot{
		Categories:  categories,
		ContentHash: catalog.ContentHash(categories),
		SourceHash:  "upstream-hash",
		FetchedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSnapshotEncoding(t *testing.T) {
	snapshot := testSnapshot()

	data, err := encodeSnapshot(snapshot, time.Now())
	require.NoError(t, err)

	decoded, err := decodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Categories, decoded.Categories)
	assert.Equal(t, snapshot.ContentHash, decoded.ContentHash)
	assert.Equal(t, "upstream-hash", decoded.SourceHash)
	assert.True(t, snapshot.FetchedAt.Equal(decoded.FetchedAt))
}

func TestDecodeSnapshot_Rejects(t *testing.T) {
	tampered := testSnapshot()
	tampered.ContentHash = "deadbeef"
	tamperedData, err := encodeSnapshot(tampered, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"invalid JSON", []byte("{not json")},
		{"no categories", []byte(`{"categories":[],"content_hash":""}`)},
		{"hash mismatch", tamperedData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeSnapshot(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestNewCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := NewCache(ctx, "127.0.0.1:1", 0)
	assert.Error(t, err)
}

func TestCache_DefaultTTL(t *testing.T) {
	c := newCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), 0)
	defer c.Close()

	assert.Equal(t, DefaultSnapshotTTL, c.ttl)
}
