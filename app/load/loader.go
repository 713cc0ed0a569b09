package load

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-etl/app/database"
	"github.com/lysyi3m/news-etl/app/news"
)

type LoadReport struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Sources  int `json:"sources"`
}

func (r LoadReport) Loaded() int {
	return r.Inserted + r.Updated
}

type Loader struct {
	store database.Store
}

func NewLoader(store database.Store) *Loader {
	return &Loader{store: store}
}

// Load persists one run inside a single transaction. Any failure rolls the
// whole run back and returns an empty report.
func (l *Loader) Load(ctx context.Context, analyzed []news.AnalyzedArticle, sources []news.Source, summary news.AnalyticsSummary) (report LoadReport, err error) {
	if summary.TotalArticles != len(analyzed) {
		return LoadReport{}, fmt.Errorf("summary counts %d articles but batch has %d", summary.TotalArticles, len(analyzed))
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return LoadReport{}, err
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		report = LoadReport{}
	}()

	for _, article := range analyzed {
		inserted, err := tx.UpsertArticle(ctx, article)
		if err != nil {
			return LoadReport{}, err
		}
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}
	}

	stored, err := tx.SourceRollup(ctx)
	if err != nil {
		return LoadReport{}, err
	}
	merged := mergeSources(stored, sources)

	if err := tx.ReplaceSources(ctx, merged); err != nil {
		return LoadReport{}, err
	}
	report.Sources = len(merged)

	if err := tx.ReplaceSummary(ctx, summary); err != nil {
		return LoadReport{}, err
	}

	if err := tx.Commit(); err != nil {
		return LoadReport{}, err
	}

	slog.Debug("Load committed", "inserted", report.Inserted, "updated", report.Updated, "sources", report.Sources)

	return report, nil
}

// mergeSources keeps the stored counts and takes categories from the batch
// wherever the batch knows the source.
func mergeSources(stored, batch []news.Source) []news.Source {
	categories := make(map[string]string, len(batch))
	for _, source := range batch {
		categories[source.Name] = source.Category
	}

	merged := make([]news.Source, 0, len(stored))
	for _, source := range stored {
		if category, ok := categories[source.Name]; ok {
			source.Category = category
		}
		merged = append(merged, source)
	}

	return merged
}
