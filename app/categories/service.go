// Package categories serves the storefront category list. It fetches raw
// records from the commerce backend, normalizes them and caches the result,
// substituting the fixed fallback sequence whenever live data is missing.
package categories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lysyi3m/category-comb/app/catalog"
	"github.com/lysyi3m/category-comb/app/querycache"
)

const queryKey = "categories"

type Fetcher interface {
	FetchCategories(ctx context.Context) ([]catalog.RawCategory, error)
}

// SnapshotStore persists the last good category list. LoadSnapshot returns
// nil without error when nothing has been stored yet.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot *catalog.Snapshot) error
	LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error)
}

type Options struct {
	StaleTime  time.Duration
	Retry      int
	RetryDelay func(attempt int) time.Duration
	Timeout    time.Duration
	Now        func() time.Time
	// Images overrides the default image choice of the shared normalizer.
	Images catalog.ImagePicker
}

// State is the observable status of the category list.
type State struct {
	Data          []catalog.Category
	IsPlaceholder bool
	IsLoading     bool
	IsFetching    bool
	IsStale       bool
	IsError       bool
	Error         error
	UpdatedAt     time.Time
}

type Service struct {
	fetcher    Fetcher
	store      SnapshotStore
	settings   *catalog.Settings
	normalizer *catalog.Normalizer
	filterer   *catalog.Filterer
	query      *querycache.Query[[]catalog.Category]
	now        func() time.Time

	mu       sync.Mutex
	lastHash string
}

// NewService wires the retrieval policy. store may be nil, in which case
// snapshots are neither saved nor restored.
func NewService(fetcher Fetcher, store SnapshotStore, settings *catalog.Settings, opts Options) *Service {
	if settings == nil {
		settings = catalog.DefaultSettings()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Service{
		fetcher:    fetcher,
		store:      store,
		settings:   settings,
		normalizer: catalog.NewNormalizer(settings, catalog.NewCounter(catalog.DefaultSequenceStart), opts.Images),
		filterer:   catalog.NewFilterer(),
		now:        opts.Now,
	}

	s.query = querycache.New(s.fetch, querycache.Options[[]catalog.Category]{
		Key:         queryKey,
		StaleTime:   opts.StaleTime,
		Retry:       opts.Retry,
		RetryDelay:  opts.RetryDelay,
		Timeout:     opts.Timeout,
		Now:         opts.Now,
		Placeholder: settings.FallbackCategories,
		OnError: func(error) []catalog.Category {
			return settings.FallbackCategories()
		},
	})

	return s
}

// Categories returns the current category list. It never fails and never
// returns an empty list: the fallback sequence stands in for missing data.
func (s *Service) Categories(ctx context.Context) []catalog.Category {
	data, err := s.query.Fetch(ctx)
	if err != nil {
		slog.Debug("Serving fallback categories", "error", err)
	}
	if len(data) == 0 {
		return s.settings.FallbackCategories()
	}
	return slices.Clone(data)
}

// Search narrows Categories down to the entries matching query.
func (s *Service) Search(ctx context.Context, query string) []catalog.Category {
	return s.filterer.Run(s.Categories(ctx), query)
}

// BySlug looks a category up in the current list.
func (s *Service) BySlug(ctx context.Context, slug string) (catalog.Category, bool) {
	for _, category := range s.Categories(ctx) {
		if category.Slug == slug {
			return category, true
		}
	}
	return catalog.Category{}, false
}

// State reports the list and its request status without waiting for the
// network. Before the first fetch resolves Data holds the fallback sequence.
func (s *Service) State() State {
	qs := s.query.State()

	state := State{
		Data:          slices.Clone(qs.Data),
		IsPlaceholder: qs.IsPlaceholder,
		IsLoading:     qs.IsLoading,
		IsFetching:    qs.IsFetching,
		IsStale:       qs.IsStale,
		IsError:       qs.IsError,
		Error:         qs.Error,
		UpdatedAt:     qs.UpdatedAt,
	}
	if len(state.Data) == 0 {
		state.Data = s.settings.FallbackCategories()
	}

	return state
}

// Refetch fetches the list again regardless of freshness.
func (s *Service) Refetch(ctx context.Context) error {
	_, err := s.query.Refetch(ctx)
	return err
}

// WarmStart seeds the cache with the stored snapshot, keeping its original
// fetch time so an old snapshot is still revalidated on first use.
func (s *Service) WarmStart(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}

	snapshot, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snapshot == nil || len(snapshot.Categories) == 0 {
		slog.Debug("No category snapshot to restore")
		return false, nil
	}

	if !s.query.Seed(snapshot.Categories, snapshot.FetchedAt) {
		return false, nil
	}

	s.mu.Lock()
	s.lastHash = snapshot.SourceHash
	s.mu.Unlock()

	slog.Info("Category snapshot restored",
		"categories", len(snapshot.Categories),
		"fetched_at", snapshot.FetchedAt.Format(time.RFC3339),
		"hash", snapshot.ContentHash)

	return true, nil
}

// Normalize maps an ad-hoc batch with its own sequence, leaving the shared
// counter of the cached list untouched.
func (s *Service) Normalize(raws []catalog.RawCategory) []catalog.Category {
	normalizer := catalog.NewNormalizer(s.settings, catalog.NewCounter(catalog.DefaultSequenceStart), nil)
	return normalizer.RunAll(raws)
}

func (s *Service) Close() {
	s.query.Close()
}

func (s *Service) fetch(ctx context.Context) ([]catalog.Category, error) {
	start := time.Now()

	raws, err := s.fetcher.FetchCategories(ctx)
	if err != nil {
		return nil, err
	}

	if len(raws) == 0 {
		slog.Info("Upstream returned no categories, serving fallback")
		return s.settings.FallbackCategories(), nil
	}

	categories := s.normalizer.RunAll(raws)

	slog.Debug("Categories fetched",
		"count", len(categories),
		"duration", time.Since(start).String())

	s.persist(ctx, categories, catalog.SourceHash(raws))

	return categories, nil
}

func (s *Service) persist(ctx context.Context, categories []catalog.Category, sourceHash string) {
	if s.store == nil {
		return
	}

	s.mu.Lock()
	unchanged := sourceHash != "" && sourceHash == s.lastHash
	s.mu.Unlock()

	if unchanged {
		slog.Debug("Category snapshot unchanged", "source_hash", sourceHash)
		return
	}

	snapshot := &catalog.Snapshot{
		Categories:  categories,
		ContentHash: catalog.ContentHash(categories),
		SourceHash:  sourceHash,
		FetchedAt:   s.now(),
	}

	if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("Failed to save category snapshot", "error", err)
		}
		return
	}

	s.mu.Lock()
	s.lastHash = sourceHash
	s.mu.Unlock()
}
