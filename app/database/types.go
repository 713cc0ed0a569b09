package database

import (
	"time"

	"github.com/lysyi3m/news-etl/app/news"
)

// Snapshot is the whole store as read inside one transaction.
type Snapshot struct {
	Articles []news.AnalyzedArticle // ordered by published_at, id
	Sources  []news.Source          // ordered by source_name
	// Summaries holds every analytics_summary row. A consistent store has one.
	Summaries []news.AnalyticsSummary
}

type Stats struct {
	TotalArticles   int            `json:"total_articles"`
	UniqueSources   int            `json:"unique_sources"`
	EarliestArticle *time.Time     `json:"earliest_article,omitempty"`
	LatestArticle   *time.Time     `json:"latest_article,omitempty"`
	AvgEngagement   float64        `json:"avg_engagement"`
	Categories      map[string]int `json:"categories"`
}
