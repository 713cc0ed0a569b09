package database

import (
	"context"

	"github.com/lysyi3m/news-etl/app/news"
)

// Store opens load transactions. A run holds exactly one Tx and must end it
// with Commit or Rollback.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

type Tx interface {
	// UpsertArticle inserts the article or replaces every column of the
	// stored row with the same id. It reports whether the row was new.
	UpsertArticle(ctx context.Context, article news.AnalyzedArticle) (bool, error)
	// SourceRollup counts stored articles per source as seen inside the
	// transaction. Category is the one already stored for the source, else
	// its most frequent article category.
	SourceRollup(ctx context.Context) ([]news.Source, error)
	ReplaceSources(ctx context.Context, sources []news.Source) error
	ReplaceSummary(ctx context.Context, summary news.AnalyticsSummary) error
	Commit() error
	Rollback() error
}

type SnapshotReader interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

type StatsReader interface {
	Stats(ctx context.Context) (Stats, error)
}
