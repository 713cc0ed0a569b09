package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/lysyi3m/news-etl/app/news"
)

// Fixed width so text ordering in SQLite matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Three bound parameters per row keeps each statement well under SQLite's
// variable limit.
const sourcesPerInsert = 500

var articleColumns = []string{
	"id", "url", "title", "description", "source_name", "published_at",
	"word_count", "title_length", "has_image", "image_url",
	"engagement_score", "hour_of_day", "day_of_week", "category",
}

// ArticleRepository handles persistence of analyzed articles, sources and
// the analytics summary.
type ArticleRepository struct {
	db  *DB
	now func() time.Time
}

func NewArticleRepository(db *DB) *ArticleRepository {
	return &ArticleRepository{db: db, now: time.Now}
}

func (r *ArticleRepository) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &articleTx{tx: tx, now: r.now}, nil
}

type articleTx struct {
	tx  *sql.Tx
	now func() time.Time
}

func (t *articleTx) UpsertArticle(ctx context.Context, a news.AnalyzedArticle) (bool, error) {
	var exists int
	err := t.tx.QueryRowContext(ctx, "SELECT 1 FROM articles WHERE id = ?", a.ID).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check article %s: %w", a.ID, err)
	}
	inserted := errors.Is(err, sql.ErrNoRows)

	query, args, err := sq.Insert("articles").
		Columns(append(articleColumns, "updated_at")...).
		Values(
			a.ID, a.URL, a.Title, a.Description, a.SourceName, formatTime(a.PublishedAt),
			a.WordCount, a.TitleLength, a.HasImage, a.ImageURL,
			a.EngagementScore, a.HourOfDay, a.DayOfWeek, a.Category,
			formatTime(t.now()),
		).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			description = excluded.description,
			source_name = excluded.source_name,
			published_at = excluded.published_at,
			word_count = excluded.word_count,
			title_length = excluded.title_length,
			has_image = excluded.has_image,
			image_url = excluded.image_url,
			engagement_score = excluded.engagement_score,
			hour_of_day = excluded.hour_of_day,
			day_of_week = excluded.day_of_week,
			category = excluded.category,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build article upsert: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("failed to upsert article %s: %w", a.ID, err)
	}

	return inserted, nil
}

func (t *articleTx) SourceRollup(ctx context.Context) ([]news.Source, error) {
	query, args, err := sq.Select(
		"a.source_name",
		"COUNT(*)",
		`COALESCE(s.category, (
			SELECT c.category FROM articles c
			WHERE c.source_name = a.source_name
			GROUP BY c.category
			ORDER BY COUNT(*) DESC, c.category ASC
			LIMIT 1))`,
	).
		From("articles a").
		LeftJoin("sources s ON s.source_name = a.source_name").
		GroupBy("a.source_name").
		OrderBy("a.source_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build source rollup: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to roll up sources: %w", err)
	}
	defer rows.Close()

	var sources []news.Source
	for rows.Next() {
		var source news.Source
		var category sql.NullString
		if err := rows.Scan(&source.Name, &source.ArticleCount, &category); err != nil {
			return nil, fmt.Errorf("failed to scan source rollup row: %w", err)
		}
		source.Category = category.String
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rollup rows: %w", err)
	}

	return sources, nil
}

func (t *articleTx) ReplaceSources(ctx context.Context, sources []news.Source) error {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM sources"); err != nil {
		return fmt.Errorf("failed to clear sources: %w", err)
	}

	for chunk := range slices.Chunk(sources, sourcesPerInsert) {
		insert := sq.Insert("sources").Columns("source_name", "article_count", "category")
		for _, source := range chunk {
			insert = insert.Values(source.Name, source.ArticleCount, nullString(source.Category))
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build sources insert: %w", err)
		}

		if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert sources: %w", err)
		}
	}

	return nil
}

func (t *articleTx) ReplaceSummary(ctx context.Context, s news.AnalyticsSummary) error {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM analytics_summary"); err != nil {
		return fmt.Errorf("failed to clear analytics summary: %w", err)
	}

	query, args, err := sq.Insert("analytics_summary").
		Columns("id", "total_articles", "unique_sources", "avg_engagement", "date_range_start", "date_range_end").
		Values(1, s.TotalArticles, s.UniqueSources, s.AvgEngagement,
			nullString(formatTime(s.DateRangeStart)), nullString(formatTime(s.DateRangeEnd))).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build summary insert: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert analytics summary: %w", err)
	}

	return nil
}

func (t *articleTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback is safe to call after Commit.
func (t *articleTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
