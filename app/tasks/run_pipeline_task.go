package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-etl/app/pipeline"
)

// RunPipelineTask executes one full pipeline run. When only the export stage
// failed, the store is already committed and retries re-export instead of
// loading the batch again.
type RunPipelineTask struct {
	Task
	runner     Runner
	exportOnly bool
	failed     pipeline.Stage
}

func NewRunPipelineTask(runner Runner) *RunPipelineTask {
	return &RunPipelineTask{
		Task:   NewTask(TaskTypeRunPipeline),
		runner: runner,
	}
}

func NewExportTask(runner Runner) *RunPipelineTask {
	return &RunPipelineTask{
		Task:       NewTask(TaskTypeExport),
		runner:     runner,
		exportOnly: true,
	}
}

func (t *RunPipelineTask) Execute(ctx context.Context) error {
	var summary pipeline.RunSummary
	var err error
	if t.exportOnly {
		summary, err = t.runner.Export(ctx)
	} else {
		summary, err = t.runner.Run(ctx)
	}

	if err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			t.failed = stageErr.Stage
			if stageErr.Stage == pipeline.StageExport {
				t.exportOnly = true
				t.Type = TaskTypeExport
			}
		}
		return fmt.Errorf("run %s failed: %w", summary.RunID, err)
	}

	slog.Info("Pipeline task completed",
		"id", t.ID,
		"run_id", summary.RunID,
		"accepted", summary.Validation.Accepted,
		"rejected", summary.Validation.Rejected,
		"loaded", summary.Load.Loaded(),
		"exported", summary.Exported(),
		"duration", t.GetDuration())

	return nil
}

// CanRetry skips retries for cleaner failures since the same batch would
// fail the same way.
func (t *RunPipelineTask) CanRetry() bool {
	return t.Task.CanRetry() && t.failed != pipeline.StageClean
}
