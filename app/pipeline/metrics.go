package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lysyi3m/news-etl/app/news"
)

const namespace = "newsetl"

type Metrics struct {
	runsTotal       *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	recordsTotal    *prometheus.CounterVec
	rejectedTotal   *prometheus.CounterVec
	lastSuccess     prometheus.Gauge
	lastQualityRate prometheus.Gauge
}

// NewMetrics registers the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"status"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Records that left each stage",
			},
			[]string{"stage"},
		),
		rejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_records_total",
				Help:      "Records rejected by the validator by reason",
			},
			[]string{"reason"},
		),
		lastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
		),
		lastQualityRate: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_quality_score",
				Help:      "Accepted share of the last validated batch in percent",
			},
		),
	}
}

func (m *Metrics) observeStage(stage Stage, seconds float64, records int) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(stage)).Observe(seconds)
	m.recordsTotal.WithLabelValues(string(stage)).Add(float64(records))
}

func (m *Metrics) observeRejections(reasons map[news.RejectReason]int, qualityScore float64) {
	if m == nil {
		return
	}
	for reason, count := range reasons {
		m.rejectedTotal.WithLabelValues(string(reason)).Add(float64(count))
	}
	m.lastQualityRate.Set(qualityScore)
}

func (m *Metrics) observeRun(summary RunSummary) {
	if m == nil {
		return
	}
	if summary.Succeeded() {
		m.runsTotal.WithLabelValues("success").Inc()
		m.lastSuccess.Set(float64(summary.FinishedAt.Unix()))
		return
	}
	m.runsTotal.WithLabelValues("failure").Inc()
}
