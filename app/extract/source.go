package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-etl/app/news"
)

// Source provides one raw batch per call.
type Source interface {
	Name() string
	Extract(ctx context.Context) ([]news.RawRecord, error)
}

// MultiSource concatenates the batches of its sources in order. A failing
// source is skipped. Extraction fails only when every source fails.
type MultiSource struct {
	sources []Source
}

func NewMultiSource(sources ...Source) *MultiSource {
	return &MultiSource{sources: sources}
}

func (m *MultiSource) Name() string {
	return fmt.Sprintf("multi(%d)", len(m.sources))
}

func (m *MultiSource) Extract(ctx context.Context) ([]news.RawRecord, error) {
	if len(m.sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	var records []news.RawRecord
	var errs []error
	for _, source := range m.sources {
		batch, err := source.Extract(ctx)
		if err != nil {
			slog.Warn("Source extraction failed", "source", source.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
			continue
		}

		slog.Debug("Source extracted", "source", source.Name(), "records", len(batch))
		records = append(records, batch...)
	}

	if len(errs) == len(m.sources) {
		return nil, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
	}

	return records, nil
}
