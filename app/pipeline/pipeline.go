package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/news-etl/app/analyze"
	"github.com/lysyi3m/news-etl/app/clean"
	"github.com/lysyi3m/news-etl/app/database"
	"github.com/lysyi3m/news-etl/app/export"
	"github.com/lysyi3m/news-etl/app/extract"
	"github.com/lysyi3m/news-etl/app/load"
	"github.com/lysyi3m/news-etl/app/validate"
)

type Stage string

const (
	StageExtract  Stage = "extract"
	StageValidate Stage = "validate"
	StageClean    Stage = "clean"
	StageAnalyze  Stage = "analyze"
	StageLoad     Stage = "load"
	StageExport   Stage = "export"
)

// StageError names the stage that aborted a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Deps wires the stage implementations into the pipeline.
type Deps struct {
	Source    extract.Source
	Validator *validate.Validator
	Cleaner   *clean.Cleaner
	Analyzer  *analyze.Analyzer
	Loader    *load.Loader
	Snapshots database.SnapshotReader
	Exporter  *export.Exporter
	Metrics   *Metrics
}

type Pipeline struct {
	source    extract.Source
	validator *validate.Validator
	cleaner   *clean.Cleaner
	analyzer  *analyze.Analyzer
	loader    *load.Loader
	snapshots database.SnapshotReader
	exporter  *export.Exporter
	metrics   *Metrics

	runMu  sync.Mutex
	lastMu sync.RWMutex
	last   *RunSummary
}

func NewPipeline(deps Deps) *Pipeline {
	return &Pipeline{
		source:    deps.Source,
		validator: deps.Validator,
		cleaner:   deps.Cleaner,
		analyzer:  deps.Analyzer,
		loader:    deps.Loader,
		snapshots: deps.Snapshots,
		exporter:  deps.Exporter,
		metrics:   deps.Metrics,
	}
}

// Run executes one full batch. Runs are serialised, a second caller waits
// for the first to finish. The summary is returned even when err is set.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	run := p.newRun()
	slog.Info("Pipeline run started", "run_id", run.summary.RunID)

	err := p.runAll(ctx, run)
	return p.finish(run, err)
}

// Export re-exports the committed store without extracting a new batch.
func (p *Pipeline) Export(ctx context.Context) (RunSummary, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	run := p.newRun()
	slog.Info("Export-only run started", "run_id", run.summary.RunID)

	err := p.export(ctx, run)
	return p.finish(run, err)
}

// LastRun returns the summary of the most recent finished run.
func (p *Pipeline) LastRun() (RunSummary, bool) {
	p.lastMu.RLock()
	defer p.lastMu.RUnlock()

	if p.last == nil {
		return RunSummary{}, false
	}
	return p.last.clone(), true
}

type run struct {
	summary RunSummary
}

func (p *Pipeline) newRun() *run {
	return &run{summary: RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}}
}

func (p *Pipeline) runAll(ctx context.Context, r *run) error {
	s := &r.summary

	start := time.Now()
	batch, err := p.source.Extract(ctx)
	if err != nil {
		return &StageError{Stage: StageExtract, Err: err}
	}
	s.Extracted = len(batch)
	p.completed(r, StageExtract, start, len(batch), "source", p.source.Name())

	start = time.Now()
	results := p.validator.Run(batch)
	s.Validation = validate.NewReport(results)
	accepted := validate.Accepted(results)
	p.completed(r, StageValidate, start, len(accepted), s.Validation.LogAttrs()...)
	p.metrics.observeRejections(s.Validation.Reasons, s.Validation.QualityScore())

	start = time.Now()
	cleaned, err := p.cleaner.Run(accepted)
	if err != nil {
		return &StageError{Stage: StageClean, Err: err}
	}
	s.Cleaned = len(cleaned)
	p.completed(r, StageClean, start, len(cleaned))

	start = time.Now()
	analyzed, sources, summary := p.analyzer.Run(cleaned)
	s.Analyzed = len(analyzed)
	p.completed(r, StageAnalyze, start, len(analyzed),
		"sources", len(sources), "avg_engagement", summary.AvgEngagement)

	start = time.Now()
	report, err := p.loader.Load(ctx, analyzed, sources, summary)
	if err != nil {
		return &StageError{Stage: StageLoad, Err: err}
	}
	s.Load = report
	p.completed(r, StageLoad, start, report.Loaded(),
		"inserted", report.Inserted, "updated", report.Updated, "sources", report.Sources)

	return p.export(ctx, r)
}

func (p *Pipeline) export(ctx context.Context, r *run) error {
	start := time.Now()

	snapshot, err := p.snapshots.Snapshot(ctx)
	if err != nil {
		return &StageError{Stage: StageExport, Err: err}
	}

	report, err := p.exporter.Export(ctx, snapshot)
	if err != nil {
		return &StageError{Stage: StageExport, Err: err}
	}
	r.summary.Export = report

	p.completed(r, StageExport, start, r.summary.Exported(), "dir", report.Dir)
	return nil
}

func (p *Pipeline) completed(r *run, st Stage, start time.Time, records int, attrs ...any) {
	elapsed := time.Since(start)
	r.summary.Timings = append(r.summary.Timings, StageTiming{Stage: st, Duration: elapsed})
	p.metrics.observeStage(st, elapsed.Seconds(), records)

	args := append([]any{"run_id", r.summary.RunID, "stage", string(st), "records", records, "duration", elapsed}, attrs...)
	slog.Info("Stage completed", args...)
}

func (p *Pipeline) finish(r *run, err error) (RunSummary, error) {
	s := &r.summary
	s.FinishedAt = time.Now().UTC()

	if err != nil {
		var stageErr *StageError
		if !errors.As(err, &stageErr) {
			stageErr = &StageError{Stage: StageExtract, Err: err}
			err = stageErr
		}
		s.FailedStage = stageErr.Stage
		s.Error = stageErr.Err.Error()
		slog.Error("Pipeline run failed", "run_id", s.RunID, "stage", string(stageErr.Stage), "error", stageErr.Err)
	} else {
		slog.Info("Pipeline run finished", "run_id", s.RunID, "duration", s.FinishedAt.Sub(s.StartedAt))
	}

	p.metrics.observeRun(*s)

	p.lastMu.Lock()
	last := s.clone()
	p.last = &last
	p.lastMu.Unlock()

	return s.clone(), err
}
