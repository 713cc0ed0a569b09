package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lysyi3m/news-etl/app/database"
	"github.com/lysyi3m/news-etl/app/tasks"
)

// NewHandler wires the read side of the store and the run scheduler.
// scheduler may be nil for one-shot processes; trigger endpoints then
// answer 503.
func NewHandler(stats database.StatsReader, runs RunHistory, runner tasks.Runner,
	scheduler tasks.TaskSchedulerInterface, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		stats:     stats,
		runs:      runs,
		runner:    runner,
		scheduler: scheduler,
		gatherer:  gatherer,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if last, ok := h.runs.LastRun(); ok {
		health["last_run"] = gin.H{
			"run_id":      last.RunID,
			"succeeded":   last.Succeeded(),
			"finished_at": last.FinishedAt,
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetMetrics(c *gin.Context) {
	promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) GetLastRun(c *gin.Context) {
	last, ok := h.runs.LastRun()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No run has finished yet"})
		return
	}

	c.JSON(http.StatusOK, last)
}

func (h *Handler) APITriggerRun(c *gin.Context) {
	h.enqueue(c, tasks.NewRunPipelineTask(h.runner))
}

func (h *Handler) APITriggerExport(c *gin.Context) {
	h.enqueue(c, tasks.NewExportTask(h.runner))
}

func (h *Handler) enqueue(c *gin.Context, task *tasks.RunPipelineTask) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler is not running"})
		return
	}

	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing task", "type", string(task.Type), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}
