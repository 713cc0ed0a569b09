package validate

import (
	"math"

	"github.com/lysyi3m/news-etl/app/news"
)

// Report is the data quality summary of one validated batch.
type Report struct {
	Total    int                       `json:"total"`
	Accepted int                       `json:"accepted"`
	Rejected int                       `json:"rejected"`
	Reasons  map[news.RejectReason]int `json:"reasons"`
}

func NewReport(results []news.ValidationResult) Report {
	report := Report{
		Total:   len(results),
		Reasons: make(map[news.RejectReason]int, len(news.RejectReasons)),
	}

	for _, reason := range news.RejectReasons {
		report.Reasons[reason] = 0
	}

	for _, result := range results {
		if result.Accepted {
			report.Accepted++
			continue
		}
		report.Rejected++
		report.Reasons[result.Reason]++
	}

	return report
}

// QualityScore is the accepted share of the batch as a percentage with two
// decimals. An empty batch scores zero.
func (r Report) QualityScore() float64 {
	if r.Total == 0 {
		return 0
	}
	return math.Round(float64(r.Accepted)/float64(r.Total)*10000) / 100
}

// LogAttrs flattens the report for structured logging.
func (r Report) LogAttrs() []any {
	attrs := []any{
		"total", r.Total,
		"accepted", r.Accepted,
		"rejected", r.Rejected,
		"quality_score", r.QualityScore(),
	}
	for _, reason := range news.RejectReasons {
		if count := r.Reasons[reason]; count > 0 {
			attrs = append(attrs, string(reason), count)
		}
	}
	return attrs
}
