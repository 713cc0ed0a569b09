package news

import (
	"time"
)

// RawRecord is an article as received from a feed. Nothing about it is
// guaranteed to be valid.
type RawRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	SourceName  string `json:"source_name"`
	PublishedAt string `json:"published_at"`
	ImageURL    string `json:"image_url,omitempty"`
}

type RejectReason string

const (
	ReasonNone               RejectReason = ""
	ReasonMissingField       RejectReason = "missing_field"
	ReasonMalformedURL       RejectReason = "malformed_url"
	ReasonMalformedTimestamp RejectReason = "malformed_timestamp"
	ReasonDuplicateURL       RejectReason = "duplicate_url"
	ReasonEmptyTitle         RejectReason = "empty_title"
)

// RejectReasons lists every rejection reason in reporting order.
var RejectReasons = []RejectReason{
	ReasonEmptyTitle,
	ReasonMissingField,
	ReasonMalformedURL,
	ReasonMalformedTimestamp,
	ReasonDuplicateURL,
}

type ValidationResult struct {
	Record   RawRecord
	Accepted bool
	Reason   RejectReason
}

// CleanedArticle is the canonical shape every stage after the cleaner works on.
type CleanedArticle struct {
	ID          string
	URL         string
	Title       string
	Description string
	SourceName  string
	PublishedAt time.Time // UTC
	WordCount   int
	TitleLength int
	HasImage    bool
	ImageURL    string
}

// Raw turns a cleaned article back into a record the cleaner accepts.
func (a CleanedArticle) Raw() RawRecord {
	return RawRecord{
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		SourceName:  a.SourceName,
		PublishedAt: FormatTimestamp(a.PublishedAt),
		ImageURL:    a.ImageURL,
	}
}

type AnalyzedArticle struct {
	CleanedArticle
	EngagementScore float64
	HourOfDay       int
	DayOfWeek       int // Sunday = 0
	Category        string
}

type Source struct {
	Name         string
	ArticleCount int
	Category     string
}

type AnalyticsSummary struct {
	TotalArticles  int
	UniqueSources  int
	AvgEngagement  float64
	DateRangeStart time.Time
	DateRangeEnd   time.Time
}
