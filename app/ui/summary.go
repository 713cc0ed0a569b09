package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lysyi3m/news-etl/app/news"
	"github.com/lysyi3m/news-etl/app/pipeline"
)

// RenderSummary formats a run summary for the terminal.
func RenderSummary(s pipeline.RunSummary) string {
	var lines []string

	lines = append(lines, HeaderStyle.Render("Run "+s.RunID))
	lines = append(lines, DimStyle.Render(fmt.Sprintf("%s  (%s)",
		s.StartedAt.UTC().Format(time.RFC3339), s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))))
	lines = append(lines, "")

	for _, timing := range s.Timings {
		lines = append(lines, StageStyle.Render(string(timing.Stage))+stageDetail(s, timing.Stage)+
			"  "+DimStyle.Render(timing.Duration.Round(time.Microsecond).String()))
	}

	if reasons := rejectionLines(s); len(reasons) > 0 {
		lines = append(lines, "")
		lines = append(lines, reasons...)
	}

	lines = append(lines, "")
	box := BoxStyle
	if s.Succeeded() {
		lines = append(lines, SuccessStyle.Render("✓ Completed"))
	} else {
		box = FailedBoxStyle
		lines = append(lines, ErrorStyle.Render(fmt.Sprintf("✗ Failed at %s: %s", s.FailedStage, s.Error)))
	}

	return box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func stageDetail(s pipeline.RunSummary, stage pipeline.Stage) string {
	switch stage {
	case pipeline.StageExtract:
		return fmt.Sprintf("%d records", s.Extracted)
	case pipeline.StageValidate:
		return fmt.Sprintf("%d accepted, %d rejected (quality %.1f%%)",
			s.Validation.Accepted, s.Validation.Rejected, s.Validation.QualityScore())
	case pipeline.StageClean:
		return fmt.Sprintf("%d articles", s.Cleaned)
	case pipeline.StageAnalyze:
		return fmt.Sprintf("%d articles", s.Analyzed)
	case pipeline.StageLoad:
		return fmt.Sprintf("%d inserted, %d updated, %d sources", s.Load.Inserted, s.Load.Updated, s.Load.Sources)
	case pipeline.StageExport:
		names := make([]string, 0, len(s.Export.Files))
		for _, f := range s.Export.Files {
			names = append(names, fmt.Sprintf("%s (%d)", f.Name, f.Rows))
		}
		return strings.Join(names, ", ")
	}
	return ""
}

func rejectionLines(s pipeline.RunSummary) []string {
	var lines []string
	for _, reason := range news.RejectReasons {
		if n := s.Validation.Reasons[reason]; n > 0 {
			lines = append(lines, WarningStyle.Render(fmt.Sprintf("  %-14s %d", reason, n)))
		}
	}
	return lines
}
