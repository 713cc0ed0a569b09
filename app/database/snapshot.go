package database

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/lysyi3m/news-etl/app/news"
)

// Snapshot reads articles, sources and summary rows inside a single
// transaction so the three tables agree with each other.
func (r *ArticleRepository) Snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	articles, err := readArticles(ctx, tx)
	if err != nil {
		return nil, err
	}

	sources, err := readSources(ctx, tx)
	if err != nil {
		return nil, err
	}

	summaries, err := readSummaries(ctx, tx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Articles:  articles,
		Sources:   sources,
		Summaries: summaries,
	}, nil
}

func readArticles(ctx context.Context, tx *sql.Tx) ([]news.AnalyzedArticle, error) {
	query, args, err := sq.Select(articleColumns...).
		From("articles").
		OrderBy("published_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build articles query: %w", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles: %w", err)
	}
	defer rows.Close()

	var articles []news.AnalyzedArticle
	for rows.Next() {
		var a news.AnalyzedArticle
		var publishedAt string
		err := rows.Scan(
			&a.ID, &a.URL, &a.Title, &a.Description, &a.SourceName, &publishedAt,
			&a.WordCount, &a.TitleLength, &a.HasImage, &a.ImageURL,
			&a.EngagementScore, &a.HourOfDay, &a.DayOfWeek, &a.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}

		if a.PublishedAt, err = parseTime(publishedAt); err != nil {
			return nil, fmt.Errorf("article %s: %w", a.ID, err)
		}

		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func readSources(ctx context.Context, tx *sql.Tx) ([]news.Source, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT source_name, article_count, category
		FROM sources
		ORDER BY source_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	defer rows.Close()

	var sources []news.Source
	for rows.Next() {
		var source news.Source
		var category sql.NullString
		if err := rows.Scan(&source.Name, &source.ArticleCount, &category); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		source.Category = category.String
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func readSummaries(ctx context.Context, tx *sql.Tx) ([]news.AnalyticsSummary, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT total_articles, unique_sources, avg_engagement, date_range_start, date_range_end
		FROM analytics_summary
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics summary: %w", err)
	}
	defer rows.Close()

	var summaries []news.AnalyticsSummary
	for rows.Next() {
		var s news.AnalyticsSummary
		var start, end sql.NullString
		if err := rows.Scan(&s.TotalArticles, &s.UniqueSources, &s.AvgEngagement, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}

		if start.Valid {
			if s.DateRangeStart, err = parseTime(start.String); err != nil {
				return nil, err
			}
		}
		if end.Valid {
			if s.DateRangeEnd, err = parseTime(end.String); err != nil {
				return nil, err
			}
		}

		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary rows: %w", err)
	}

	return summaries, nil
}

// Stats returns store-wide totals for monitoring.
func (r *ArticleRepository) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Categories: make(map[string]int)}

	var earliest, latest sql.NullString
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT source_name), MIN(published_at), MAX(published_at), AVG(engagement_score)
		FROM articles
	`).Scan(&stats.TotalArticles, &stats.UniqueSources, &earliest, &latest, &avg)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get article stats: %w", err)
	}
	stats.AvgEngagement = avg.Float64

	if earliest.Valid {
		t, err := parseTime(earliest.String)
		if err != nil {
			return Stats{}, err
		}
		stats.EarliestArticle = &t
	}
	if latest.Valid {
		t, err := parseTime(latest.String)
		if err != nil {
			return Stats{}, err
		}
		stats.LatestArticle = &t
	}

	rows, err := r.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM articles GROUP BY category")
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get category stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan category row: %w", err)
		}
		stats.Categories[category] = count
	}

	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("error iterating category rows: %w", err)
	}

	return stats, nil
}
