package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lysyi3m/category-comb/app/catalog"
)

const (
	keyPrefix          = "category-comb"
	DefaultSnapshotTTL = 7 * 24 * time.Hour
)

// Cache keeps the category snapshot in Redis so several instances can share
// the last good list.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

type snapshotRecord struct {
	Categories  []catalog.Category `json:"categories"`
	ContentHash string             `json:"content_hash"`
	SourceHash  string             `json:"source_hash"`
	FetchedAt   time.Time          `json:"fetched_at"`
	CachedAt    int64              `json:"cached_at"`
}

func NewCache(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return newCache(client, ttl), nil
}

func newCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func GenerateKey(parts ...string) string {
	key := keyPrefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (c *Cache) SaveSnapshot(ctx context.Context, snapshot *catalog.Snapshot) error {
	data, err := encodeSnapshot(snapshot, time.Now())
	if err != nil {
		return err
	}
	return c.Set(ctx, GenerateKey("snapshot"), data, c.ttl)
}

// LoadSnapshot returns nil on a cache miss. A corrupt entry is dropped and
// reported as a miss.
func (c *Cache) LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	key := GenerateKey("snapshot")

	data, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}

	snapshot, err := decodeSnapshot([]byte(data))
	if err != nil {
		slog.Warn("Dropping unreadable category snapshot", "key", key, "error", err)
		if delErr := c.Delete(ctx, key); delErr != nil {
			slog.Warn("Failed to delete category snapshot", "key", key, "error", delErr)
		}
		return nil, nil
	}

	return snapshot, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Health(ctx context.Context) map[string]any {
	health := map[string]any{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if ttl, err := c.client.TTL(ctx, GenerateKey("snapshot")).Result(); err == nil && ttl > 0 {
		health["snapshot_ttl"] = ttl.String()
	}

	return health
}

func encodeSnapshot(snapshot *catalog.Snapshot, now time.Time) ([]byte, error) {
	data, err := json.Marshal(snapshotRecord{
		Categories:  snapshot.Categories,
		ContentHash: snapshot.ContentHash,
		SourceHash:  snapshot.SourceHash,
		FetchedAt:   snapshot.FetchedAt,
		CachedAt:    now.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (*catalog.Snapshot, error) {
	var record snapshotRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if len(record.Categories) == 0 {
		return nil, errors.New("snapshot has no categories")
	}
	if record.ContentHash != catalog.ContentHash(record.Categories) {
		return nil, errors.New("snapshot content hash mismatch")
	}

	return &catalog.Snapshot{
		Categories:  record.Categories,
		ContentHash: record.ContentHash,
		SourceHash:  record.SourceHash,
		FetchedAt:   record.FetchedAt,
	}, nil
}
