package clean

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/lysyi3m/news-etl/app/news"
)

// ErrInvariantViolation marks input the validator should never have accepted.
var ErrInvariantViolation = errors.New("cleaner invariant violation")

var strictPolicy = bluemonday.StrictPolicy()

type Cleaner struct {
	title cases.Caser
}

func NewCleaner() *Cleaner {
	return &Cleaner{
		title: cases.Title(language.Und),
	}
}

// Run normalises accepted records into canonical articles. Output order
// follows input order. Any record that cannot be cleaned aborts the batch.
func (c *Cleaner) Run(accepted []news.RawRecord) ([]news.CleanedArticle, error) {
	articles := make([]news.CleanedArticle, 0, len(accepted))
	ids := make(map[string]string, len(accepted))

	for i, record := range accepted {
		article, err := c.cleanRecord(record)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, record.URL, err)
		}

		if previous, dup := ids[article.ID]; dup {
			return nil, fmt.Errorf("record %d: id %s already produced by %s: %w",
				i, article.ID, previous, ErrInvariantViolation)
		}
		ids[article.ID] = article.URL

		articles = append(articles, article)
	}

	return articles, nil
}

func (c *Cleaner) cleanRecord(record news.RawRecord) (news.CleanedArticle, error) {
	normalizedURL, err := news.NormalizeURL(record.URL)
	if err != nil {
		return news.CleanedArticle{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	id, err := news.ArticleID(normalizedURL)
	if err != nil {
		return news.CleanedArticle{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	publishedAt, err := news.ParseTimestamp(record.PublishedAt)
	if err != nil {
		return news.CleanedArticle{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	title := Text(record.Title)
	if title == "" {
		return news.CleanedArticle{}, fmt.Errorf("title is empty after cleaning: %w", ErrInvariantViolation)
	}

	source := c.sourceName(record.SourceName)
	if source == "" {
		return news.CleanedArticle{}, fmt.Errorf("source name is empty after cleaning: %w", ErrInvariantViolation)
	}

	description := Text(record.Description)
	imageURL := strings.TrimSpace(record.ImageURL)

	return news.CleanedArticle{
		ID:          id,
		URL:         normalizedURL,
		Title:       title,
		Description: description,
		SourceName:  source,
		PublishedAt: publishedAt,
		WordCount:   len(strings.Fields(title + " " + description)),
		TitleLength: utf8.RuneCountInString(title),
		HasImage:    imageURL != "",
		ImageURL:    imageURL,
	}, nil
}

// Escaped markup turns into live markup after one unescape, so the text is
// cleaned until it stops changing. Input still changing after this many
// passes is dropped.
const maxTextPasses = 8

// Text strips markup, unescapes entities and collapses whitespace. The result
// is a fixed point: Text(Text(s)) == Text(s).
func Text(s string) string {
	for range maxTextPasses {
		next := textPass(s)
		if next == s {
			return s
		}
		s = next
	}
	return ""
}

func textPass(s string) string {
	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

func (c *Cleaner) sourceName(s string) string {
	return c.title.String(Text(s))
}
