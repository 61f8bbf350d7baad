package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/category-comb/app/catalog"
	"github.com/lysyi3m/category-comb/app/categories"
	"github.com/lysyi3m/category-comb/app/tasks"
)

const maxNormalizeBody = 1 << 20

// NewHandler builds the HTTP handlers. store and history are optional.
func NewHandler(service CategoryService, scheduler tasks.TaskSchedulerInterface,
	store HealthChecker, history SnapshotHistory) *Handler {
	return &Handler{
		service:   service,
		scheduler: scheduler,
		store:     store,
		history:   history,
		filterer:  catalog.NewFilterer(),
		startedAt: time.Now(),
	}
}

func (h *Handler) GetCategories(c *gin.Context) {
	ctx := c.Request.Context()

	data := h.service.Categories(ctx)
	if query := c.Query("q"); query != "" {
		data = h.filterer.Run(data, query)
	}

	etag := `"` + catalog.ContentHash(data) + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")

	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.JSON(http.StatusOK, newCategoriesResponse(data, h.service.State()))
}

func (h *Handler) GetCategoriesState(c *gin.Context) {
	state := h.service.State()
	c.JSON(http.StatusOK, newCategoriesResponse(state.Data, state))
}

func (h *Handler) GetCategory(c *gin.Context) {
	slug := c.Param("slug")

	category, ok := h.service.BySlug(c.Request.Context(), slug)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found", "slug": slug})
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *Handler) GetHealth(c *gin.Context) {
	state := h.service.State()

	health := map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().In(time.Local).Format(time.RFC3339),
		"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
		"categories": len(state.Data),
		"is_stale":   state.IsStale,
		"is_error":   state.IsError,
	}

	if !state.UpdatedAt.IsZero() {
		health["updated_at"] = state.UpdatedAt.Format(time.RFC3339)
	}

	if h.store != nil {
		storeHealth := h.store.Health(c.Request.Context())
		health["store"] = storeHealth
		if storeHealth["status"] != "healthy" {
			health["status"] = "degraded"
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIRefetchCategories(c *gin.Context) {
	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		if err := h.service.Refetch(c.Request.Context()); err != nil {
			slog.Warn("Manual category refetch failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Refetch failed", "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
		return
	}

	task := tasks.NewRefreshCategoriesTask(h.service)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue refresh task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to schedule refresh", "message": err.Error()})
		return
	}

	slog.Info("Category refresh requested", "task_id", task.GetID(), "request_id", c.GetString(requestIDKey))

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "queued",
		"task_id": task.GetID(),
	})
}

func (h *Handler) APINormalizeCategories(c *gin.Context) {
	var raws []catalog.RawCategory

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxNormalizeBody)
	if err := c.ShouldBindJSON(&raws); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request too large", "message": err.Error()})
		case errors.Is(err, io.EOF):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": "request body must be a JSON array of category records"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		}
		return
	}

	data := h.service.Normalize(raws)

	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"count": len(data),
	})
}

func (h *Handler) APIListSnapshots(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "message": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	history, err := h.history.GetSnapshotHistory(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_snapshot_history", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	snapshots := make([]map[string]any, 0, len(history))
	for _, info := range history {
		snapshots = append(snapshots, map[string]any{
			"id":           info.ID,
			"content_hash": info.ContentHash,
			"count":        info.CategoryCount,
			"fetched_at":   info.FetchedAt,
			"created_at":   info.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

func newCategoriesResponse(data []catalog.Category, state categories.State) CategoriesResponse {
	resp := CategoriesResponse{
		Data:          data,
		Count:         len(data),
		IsLoading:     state.IsLoading,
		IsFetching:    state.IsFetching,
		IsPlaceholder: state.IsPlaceholder,
		IsStale:       state.IsStale,
		IsError:       state.IsError,
	}
	if state.Error != nil {
		msg := state.Error.Error()
		resp.Error = &msg
	}
	if !state.UpdatedAt.IsZero() {
		updatedAt := state.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
