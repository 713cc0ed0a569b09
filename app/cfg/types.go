package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath    string
	ExportDir string

	// Extraction
	InputFile  string
	FeedURLs   []string
	SourceName string
	Timeout    time.Duration
	UserAgent  string

	// Analysis
	AnalyzerConfig string

	// Scheduling and serving
	ScheduleInterval time.Duration
	TaskTimeout      time.Duration
	Port             string
	APIAccessKey     string

	ExportOnly bool
	Debug      bool
	Version    string
}

// Scheduled reports whether the process keeps running and serves HTTP.
func (c *Cfg) Scheduled() bool {
	return c.ScheduleInterval > 0
}
