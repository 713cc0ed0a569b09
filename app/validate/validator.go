package validate

import (
	"errors"
	"strings"

	"github.com/lysyi3m/news-etl/app/clean"
	"github.com/lysyi3m/news-etl/app/news"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Run classifies every record of the batch independently and returns the
// results in input order. The first occurrence of a URL claims it, even when
// that occurrence is rejected for another reason.
func (v *Validator) Run(batch []news.RawRecord) []news.ValidationResult {
	results := make([]news.ValidationResult, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))

	for _, record := range batch {
		normalized, urlErr := news.NormalizeURL(record.URL)

		reason := v.check(record, urlErr)
		if urlErr == nil {
			if _, dup := seen[normalized]; dup && reason == news.ReasonNone {
				reason = news.ReasonDuplicateURL
			}
			seen[normalized] = struct{}{}
		}

		results = append(results, news.ValidationResult{
			Record:   record,
			Accepted: reason == news.ReasonNone,
			Reason:   reason,
		})
	}

	return results
}

func (v *Validator) check(record news.RawRecord, urlErr error) news.RejectReason {
	if clean.Text(record.Title) == "" {
		return news.ReasonEmptyTitle
	}

	if strings.TrimSpace(record.URL) == "" {
		return news.ReasonMissingField
	}
	if errors.Is(urlErr, news.ErrMalformedURL) {
		return news.ReasonMalformedURL
	}

	if clean.Text(record.SourceName) == "" {
		return news.ReasonMissingField
	}

	if strings.TrimSpace(record.PublishedAt) == "" {
		return news.ReasonMissingField
	}
	if _, err := news.ParseTimestamp(record.PublishedAt); err != nil {
		return news.ReasonMalformedTimestamp
	}

	return news.ReasonNone
}

// Accepted returns the records that passed validation, in input order.
func Accepted(results []news.ValidationResult) []news.RawRecord {
	accepted := make([]news.RawRecord, 0, len(results))
	for _, result := range results {
		if result.Accepted {
			accepted = append(accepted, result.Record)
		}
	}
	return accepted
}
