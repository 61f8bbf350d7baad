package tasks

import "context"

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to manage background category
// refreshes.
// Example usage:
//
//	scheduler := NewScheduler(service, 5*time.Minute, 2)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRefreshCategoriesTask(service))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

type CategoryService interface {
	WarmStart(ctx context.Context) (bool, error)
	Refetch(ctx context.Context) error
}
