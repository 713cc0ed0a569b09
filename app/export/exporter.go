package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lysyi3m/news-etl/app/database"
	"github.com/lysyi3m/news-etl/app/news"
)

const (
	ArticlesFile = "articles.csv"
	SourcesFile  = "sources.csv"
	SummaryFile  = "analytics_summary.csv"
	CombinedFile = "combined_news_analysis.csv"
)

// Column contracts consumed by the BI tool. Changing any of them is a
// breaking change for downstream dashboards.
var (
	ArticleColumns = []string{
		"id", "title", "source_name", "published_at", "word_count", "title_length",
		"has_image", "engagement_score", "hour_of_day", "day_of_week", "category",
	}
	SourceColumns   = []string{"source_name", "article_count", "category"}
	SummaryColumns  = []string{"total_articles", "unique_sources", "avg_engagement", "date_range_start", "date_range_end"}
	CombinedColumns = append(append([]string{}, ArticleColumns...), "source_article_count", "source_category")
)

var ErrInconsistentSnapshot = errors.New("inconsistent store snapshot")

type FileReport struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

type ExportReport struct {
	Dir   string       `json:"dir"`
	Files []FileReport `json:"files"`
}

type Exporter struct {
	dir    string
	rename func(oldpath, newpath string) error
}

func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir, rename: os.Rename}
}

type table struct {
	name   string
	header []string
	rows   [][]string
}

// Export projects the snapshot into the CSV files. Nothing in the target
// directory changes unless every file was written.
func (e *Exporter) Export(ctx context.Context, snapshot *database.Snapshot) (ExportReport, error) {
	tables, err := project(snapshot)
	if err != nil {
		return ExportReport{}, err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return ExportReport{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	temps := make([]string, 0, len(tables))
	defer func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}()

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return ExportReport{}, err
		}

		tmp, err := e.writeTemp(t)
		if err != nil {
			return ExportReport{}, fmt.Errorf("failed to write %s: %w", t.name, err)
		}
		temps = append(temps, tmp)
	}

	if err := e.publish(tables, temps); err != nil {
		return ExportReport{}, err
	}
	temps = nil

	report := ExportReport{Dir: e.dir}
	for _, t := range tables {
		report.Files = append(report.Files, FileReport{Name: t.name, Rows: len(t.rows)})
		slog.Debug("Export file written", "file", t.name, "rows", len(t.rows))
	}

	return report, nil
}

type published struct {
	target string
	backup string
}

// publish moves the temporaries over their targets. Previous files are set
// aside first and put back if any move fails.
func (e *Exporter) publish(tables []table, temps []string) (err error) {
	var done []published
	defer func() {
		if err == nil {
			for _, p := range done {
				if p.backup != "" {
					os.Remove(p.backup)
				}
			}
			return
		}
		for i := len(done) - 1; i >= 0; i-- {
			if restoreErr := e.restore(done[i]); restoreErr != nil {
				slog.Error("Failed to restore previous export file", "file", done[i].target, "error", restoreErr)
			}
		}
	}()

	for i, t := range tables {
		p := published{target: filepath.Join(e.dir, t.name)}

		if _, statErr := os.Stat(p.target); statErr == nil {
			p.backup = temps[i] + ".bak"
			if err := e.rename(p.target, p.backup); err != nil {
				return fmt.Errorf("failed to set aside previous %s: %w", t.name, err)
			}
		}

		if err := e.rename(temps[i], p.target); err != nil {
			if p.backup != "" {
				done = append(done, published{backup: p.backup, target: p.target})
			}
			return fmt.Errorf("failed to publish %s: %w", t.name, err)
		}
		done = append(done, p)
	}

	return nil
}

func (e *Exporter) restore(p published) error {
	if p.backup == "" {
		return os.Remove(p.target)
	}
	return os.Rename(p.backup, p.target)
}

func (e *Exporter) writeTemp(t table) (path string, err error) {
	f, err := os.CreateTemp(e.dir, "."+t.name+".*.tmp")
	if err != nil {
		return "", err
	}
	path = f.Name()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(t.header); err != nil {
		return path, err
	}
	if err := w.WriteAll(t.rows); err != nil {
		return path, err
	}

	return path, f.Sync()
}

func project(snapshot *database.Snapshot) ([]table, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: no snapshot", ErrInconsistentSnapshot)
	}
	if n := len(snapshot.Summaries); n != 1 {
		return nil, fmt.Errorf("%w: expected exactly one analytics summary row, found %d", ErrInconsistentSnapshot, n)
	}

	sources := make(map[string]news.Source, len(snapshot.Sources))
	sourceRows := make([][]string, 0, len(snapshot.Sources))
	for _, source := range snapshot.Sources {
		if _, dup := sources[source.Name]; dup {
			return nil, fmt.Errorf("%w: source %q appears twice", ErrInconsistentSnapshot, source.Name)
		}
		sources[source.Name] = source
		sourceRows = append(sourceRows, sourceRow(source))
	}

	articleRows := make([][]string, 0, len(snapshot.Articles))
	combinedRows := make([][]string, 0, len(snapshot.Articles))
	for _, article := range snapshot.Articles {
		source, ok := sources[article.SourceName]
		if !ok {
			return nil, fmt.Errorf("%w: article %s references unknown source %q", ErrInconsistentSnapshot, article.ID, article.SourceName)
		}

		row := articleRow(article)
		articleRows = append(articleRows, row)
		combinedRows = append(combinedRows, append(row[:len(row):len(row)],
			strconv.Itoa(source.ArticleCount), source.Category))
	}

	return []table{
		{name: ArticlesFile, header: ArticleColumns, rows: articleRows},
		{name: SourcesFile, header: SourceColumns, rows: sourceRows},
		{name: SummaryFile, header: SummaryColumns, rows: [][]string{summaryRow(snapshot.Summaries[0])}},
		{name: CombinedFile, header: CombinedColumns, rows: combinedRows},
	}, nil
}

func articleRow(a news.AnalyzedArticle) []string {
	return []string{
		a.ID,
		a.Title,
		a.SourceName,
		formatTime(a.PublishedAt),
		strconv.Itoa(a.WordCount),
		strconv.Itoa(a.TitleLength),
		strconv.FormatBool(a.HasImage),
		strconv.FormatFloat(a.EngagementScore, 'f', 2, 64),
		strconv.Itoa(a.HourOfDay),
		strconv.Itoa(a.DayOfWeek),
		a.Category,
	}
}

func sourceRow(s news.Source) []string {
	return []string{s.Name, strconv.Itoa(s.ArticleCount), s.Category}
}

func summaryRow(s news.AnalyticsSummary) []string {
	return []string{
		strconv.Itoa(s.TotalArticles),
		strconv.Itoa(s.UniqueSources),
		strconv.FormatFloat(s.AvgEngagement, 'f', 4, 64),
		formatTime(s.DateRangeStart),
		formatTime(s.DateRangeEnd),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
