package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lysyi3m/news-etl/app/analyze"
	"github.com/lysyi3m/news-etl/app/api"
	"github.com/lysyi3m/news-etl/app/cfg"
	"github.com/lysyi3m/news-etl/app/clean"
	"github.com/lysyi3m/news-etl/app/database"
	"github.com/lysyi3m/news-etl/app/export"
	"github.com/lysyi3m/news-etl/app/extract"
	"github.com/lysyi3m/news-etl/app/load"
	"github.com/lysyi3m/news-etl/app/pipeline"
	"github.com/lysyi3m/news-etl/app/tasks"
	"github.com/lysyi3m/news-etl/app/ui"
	"github.com/lysyi3m/news-etl/app/validate"
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if appCfg == nil {
		// Help was shown
		return 0
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting News ETL", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		return 1
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return 1
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	analyzerCfg, err := analyze.LoadConfig(appCfg.AnalyzerConfig)
	if err != nil {
		slog.Error("Failed to load analyzer configuration", "path", appCfg.AnalyzerConfig, "error", err)
		return 1
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	repo := database.NewArticleRepository(db)
	p := pipeline.NewPipeline(pipeline.Deps{
		Source:    buildSource(appCfg),
		Validator: validate.NewValidator(),
		Cleaner:   clean.NewCleaner(),
		Analyzer:  analyze.NewAnalyzer(analyzerCfg),
		Loader:    load.NewLoader(repo),
		Snapshots: repo,
		Exporter:  export.NewExporter(appCfg.ExportDir),
		Metrics:   pipeline.NewMetrics(registry),
	})

	if !appCfg.Scheduled() {
		return runOnce(p, appCfg.ExportOnly)
	}

	return serve(appCfg, p, repo, registry)
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func buildSource(appCfg *cfg.Cfg) extract.Source {
	var sources []extract.Source

	if appCfg.InputFile != "" {
		sources = append(sources, extract.NewJSONFileSource(appCfg.InputFile))
	}

	client := &http.Client{Timeout: appCfg.Timeout}
	for _, url := range appCfg.FeedURLs {
		sources = append(sources, extract.NewFeedSource(url, appCfg.SourceName, client, appCfg.UserAgent, appCfg.Timeout))
	}

	if len(sources) == 1 {
		return sources[0]
	}
	return extract.NewMultiSource(sources...)
}

func runOnce(p *pipeline.Pipeline, exportOnly bool) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var summary pipeline.RunSummary
	var err error
	if exportOnly {
		summary, err = p.Export(ctx)
	} else {
		summary, err = p.Run(ctx)
	}

	fmt.Println(ui.RenderSummary(summary))

	if err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			slog.Error("Pipeline failed", "stage", string(stageErr.Stage), "error", stageErr.Err)
		} else {
			slog.Error("Pipeline failed", "error", err)
		}
		return 1
	}
	return 0
}

func serve(appCfg *cfg.Cfg, p *pipeline.Pipeline, repo *database.ArticleRepository, registry *prometheus.Registry) int {
	slog.Info("Starting scheduler", "interval", appCfg.ScheduleInterval.String(), "task_timeout", appCfg.TaskTimeout.String())
	scheduler := tasks.NewScheduler(p, appCfg.ScheduleInterval, appCfg.TaskTimeout)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(repo, p, p, scheduler, registry)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "api_enabled", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = 1
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return exitCode
}
