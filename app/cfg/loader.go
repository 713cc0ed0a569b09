package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./data/news.db" description:"SQLite database file"`
	ExportDir string `long:"export-dir" env:"EXPORT_DIR" default:"./export" description:"Directory for the CSV exports"`

	// Extraction
	InputFile  string   `long:"input" env:"INPUT_FILE" description:"JSON file with a batch of raw records"`
	FeedURLs   []string `long:"feed-url" env:"FEED_URLS" env-delim:"," description:"RSS/Atom feed URL (repeatable)"`
	SourceName string   `long:"source-name" env:"SOURCE_NAME" description:"Source name for feed items (defaults to the feed title)"`
	Timeout    int      `long:"timeout" env:"TIMEOUT" default:"30" description:"Extraction timeout in seconds"`
	UserAgent  string   `long:"user-agent" env:"USER_AGENT" default:"News ETL/1.0" description:"User agent string for HTTP requests"`

	// Analysis
	AnalyzerConfig string `long:"analyzer-config" env:"ANALYZER_CONFIG" description:"YAML file with engagement weights and category tables"`

	// Scheduling and serving
	ScheduleInterval int    `long:"schedule-interval" env:"SCHEDULE_INTERVAL" default:"0" description:"Run every N seconds and serve the HTTP API; 0 runs once and exits"`
	TaskTimeout      int    `long:"task-timeout" env:"TASK_TIMEOUT" default:"300" description:"Upper bound for one scheduled run in seconds"`
	Port             string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey     string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	ExportOnly bool `long:"export-only" env:"EXPORT_ONLY" description:"Re-export the committed store without extracting"`
	Debug      bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses the process arguments and environment. It returns nil, nil
// when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:           raw.DBPath,
		ExportDir:        raw.ExportDir,
		InputFile:        raw.InputFile,
		FeedURLs:         raw.FeedURLs,
		SourceName:       raw.SourceName,
		Timeout:          time.Duration(raw.Timeout) * time.Second,
		UserAgent:        raw.UserAgent,
		AnalyzerConfig:   raw.AnalyzerConfig,
		ScheduleInterval: time.Duration(raw.ScheduleInterval) * time.Second,
		TaskTimeout:      time.Duration(raw.TaskTimeout) * time.Second,
		Port:             raw.Port,
		APIAccessKey:     raw.APIAccessKey,
		ExportOnly:       raw.ExportOnly,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func (c *Cfg) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.ExportDir == "" {
		return fmt.Errorf("export directory is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ScheduleInterval < 0 {
		return fmt.Errorf("schedule interval must not be negative")
	}
	if c.ScheduleInterval > 0 && c.TaskTimeout <= 0 {
		return fmt.Errorf("task timeout must be positive")
	}
	if !c.ExportOnly && c.InputFile == "" && len(c.FeedURLs) == 0 {
		return fmt.Errorf("an input file or at least one feed URL is required")
	}
	return nil
}
