package pipeline

import (
	"maps"
	"slices"
	"time"

	"github.com/lysyi3m/news-etl/app/export"
	"github.com/lysyi3m/news-etl/app/load"
	"github.com/lysyi3m/news-etl/app/validate"
)

type StageTiming struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// RunSummary is produced for every run, failed or not.
type RunSummary struct {
	RunID       string              `json:"run_id"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	Extracted   int                 `json:"extracted"`
	Validation  validate.Report     `json:"validation"`
	Cleaned     int                 `json:"cleaned"`
	Analyzed    int                 `json:"analyzed"`
	Load        load.LoadReport     `json:"load"`
	Export      export.ExportReport `json:"export"`
	Timings     []StageTiming       `json:"timings"`
	FailedStage Stage               `json:"failed_stage,omitempty"`
	Error       string              `json:"error,omitempty"`
}

func (s RunSummary) Succeeded() bool {
	return s.FailedStage == ""
}

// Exported counts data rows across all written files.
func (s RunSummary) Exported() int {
	total := 0
	for _, f := range s.Export.Files {
		total += f.Rows
	}
	return total
}

func (s RunSummary) clone() RunSummary {
	c := s
	c.Validation.Reasons = maps.Clone(s.Validation.Reasons)
	c.Export.Files = slices.Clone(s.Export.Files)
	c.Timings = slices.Clone(s.Timings)
	return c
}
