package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lysyi3m/news-etl/app/database"
	"github.com/lysyi3m/news-etl/app/pipeline"
	"github.com/lysyi3m/news-etl/app/tasks"
)

type RunHistory interface {
	LastRun() (pipeline.RunSummary, bool)
}

var _ RunHistory = (*pipeline.Pipeline)(nil)

type Handler struct {
	stats     database.StatsReader
	runs      RunHistory
	runner    tasks.Runner
	scheduler tasks.TaskSchedulerInterface
	gatherer  prometheus.Gatherer
}
