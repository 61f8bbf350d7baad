package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// WarmCategoriesTask restores the stored snapshot at startup. Without one it
// primes the cache with a live fetch.
type WarmCategoriesTask struct {
	Task
	service CategoryService
}

func NewWarmCategoriesTask(service CategoryService) *WarmCategoriesTask {
	return &WarmCategoriesTask{
		Task:    NewTask(TaskTypeWarmCategories),
		service: service,
	}
}

func (t *WarmCategoriesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	restored, err := t.service.WarmStart(ctx)
	if err != nil {
		slog.Warn("Failed to restore category snapshot", "error", err)
	}

	if !restored {
		if err := t.service.Refetch(ctx); err != nil {
			return fmt.Errorf("failed to prime categories: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", "WarmCategories",
		"restored", restored,
		"duration", t.GetDuration())

	return nil
}
