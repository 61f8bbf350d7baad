package api

import (
	"context"
	"time"

	"github.com/lysyi3m/category-comb/app/catalog"
	"github.com/lysyi3m/category-comb/app/categories"
	"github.com/lysyi3m/category-comb/app/database"
	"github.com/lysyi3m/category-comb/app/tasks"
)

type CategoryService interface {
	tasks.CategoryService
	Categories(ctx context.Context) []catalog.Category
	Search(ctx context.Context, query string) []catalog.Category
	BySlug(ctx context.Context, slug string) (catalog.Category, bool)
	State() categories.State
	Normalize(raws []catalog.RawCategory) []catalog.Category
}

var _ CategoryService = (*categories.Service)(nil)

type HealthChecker interface {
	Health(ctx context.Context) map[string]any
}

type SnapshotHistory interface {
	GetSnapshotHistory(ctx context.Context, limit int) ([]database.SnapshotInfo, error)
}

var _ SnapshotHistory = (*database.Repository)(nil)

type Handler struct {
	service   CategoryService
	scheduler tasks.TaskSchedulerInterface
	store     HealthChecker
	history   SnapshotHistory
	filterer  *catalog.Filterer
	startedAt time.Time
}

type CategoriesResponse struct {
	Data          []catalog.Category `json:"data"`
	Count         int                `json:"count"`
	IsLoading     bool               `json:"is_loading"`
	IsFetching    bool               `json:"is_fetching"`
	IsPlaceholder bool               `json:"is_placeholder"`
	IsStale       bool               `json:"is_stale"`
	IsError       bool               `json:"is_error"`
	Error         *string            `json:"error"`
	UpdatedAt     *time.Time         `json:"updated_at"`
}
