package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type RefreshCategoriesTask struct {
	Task
	service CategoryService
}

func NewRefreshCategoriesTask(service CategoryService) *RefreshCategoriesTask {
	return &RefreshCategoriesTask{
		Task:    NewTask(TaskTypeRefreshCategories),
		service: service,
	}
}

func (t *RefreshCategoriesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.service.Refetch(ctx); err != nil {
		return fmt.Errorf("failed to refresh categories: %w", err)
	}

	slog.Info("Task completed",
		"type", "RefreshCategories",
		"duration", t.GetDuration())

	return nil
}
