package tasks

import (
	"context"

	"github.com/lysyi3m/news-etl/app/pipeline"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Example usage:
//
//	scheduler := NewScheduler(pipeline, interval, taskTimeout)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Runner executes pipeline runs. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context) (pipeline.RunSummary, error)
	Export(ctx context.Context) (pipeline.RunSummary, error)
}
