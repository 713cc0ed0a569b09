package export

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/news-etl/app/database"
	"github.com/lysyi3m/news-etl/app/news"
)

func testSnapshot() *database.Snapshot {
	published := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	return &database.Snapshot{
		Articles: []news.AnalyzedArticle{
			{
				CleanedArticle: news.CleanedArticle{
					ID:          "abc",
					URL:         "https://example.com/a",
					Title:       "Markets, rally \"big\"",
					SourceName:  "Reuters",
					PublishedAt: published,
					WordCount:   14,
					TitleLength: 20,
					HasImage:    true,
				},
				EngagementScore: 32,
				HourOfDay:       14,
				DayOfWeek:       2,
				Category:        "finance",
			},
		},
		Sources: []news.Source{{Name: "Reuters", ArticleCount: 1, Category: "finance"}},
		Summaries: []news.AnalyticsSummary{{
			TotalArticles:  1,
			UniqueSources:  1,
			AvgEngagement:  32,
			DateRangeStart: published,
			DateRangeEnd:   published,
		}},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExporter_Export(t *testing.T) {
	dir := t.TempDir()

	report, err := NewExporter(dir).Export(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, dir, report.Dir)
	assert.Equal(t, []FileReport{
		{Name: ArticlesFile, Rows: 1},
		{Name: SourcesFile, Rows: 1},
		{Name: SummaryFile, Rows: 1},
		{Name: CombinedFile, Rows: 1},
	}, report.Files)

	assert.Equal(t, [][]string{
		ArticleColumns,
		{"abc", "Markets, rally \"big\"", "Reuters", "2024-03-05T14:30:00Z", "14", "20", "true", "32.00", "14", "2", "finance"},
	}, readCSV(t, filepath.Join(dir, ArticlesFile)))

	assert.Equal(t, [][]string{
		SourceColumns,
		{"Reuters", "1", "finance"},
	}, readCSV(t, filepath.Join(dir, SourcesFile)))

	assert.Equal(t, [][]string{
		SummaryColumns,
		{"1", "1", "32.0000", "2024-03-05T14:30:00Z", "2024-03-05T14:30:00Z"},
	}, readCSV(t, filepath.Join(dir, SummaryFile)))

	combined := readCSV(t, filepath.Join(dir, CombinedFile))
	require.Len(t, combined, 2)
	assert.Equal(t, CombinedColumns, combined[0])
	assert.Equal(t, []string{"1", "finance"}, combined[1][len(ArticleColumns):])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "no temporary files left behind")
}

func TestExporter_Export_HeadersStable(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir)

	_, err := exporter.Export(context.Background(), testSnapshot())
	require.NoError(t, err)
	first := readCSV(t, filepath.Join(dir, CombinedFile))[0]

	_, err = exporter.Export(context.Background(), testSnapshot())
	require.NoError(t, err)
	second := readCSV(t, filepath.Join(dir, CombinedFile))[0]

	assert.Equal(t, first, second)
	assert.Equal(t, []string{
		"id", "title", "source_name", "published_at", "word_count", "title_length",
		"has_image", "engagement_score", "hour_of_day", "day_of_week", "category",
		"source_article_count", "source_category",
	}, second)
}

func TestExporter_Export_EmptySummaryDates(t *testing.T) {
	dir := t.TempDir()
	snapshot := &database.Snapshot{Summaries: []news.AnalyticsSummary{{}}}

	_, err := NewExporter(dir).Export(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		SummaryColumns,
		{"0", "0", "0.0000", "", ""},
	}, readCSV(t, filepath.Join(dir, SummaryFile)))
	assert.Equal(t, [][]string{ArticleColumns}, readCSV(t, filepath.Join(dir, ArticlesFile)))
}

func TestExporter_Export_Inconsistent(t *testing.T) {
	cases := map[string]func(s *database.Snapshot){
		"unknown source":   func(s *database.Snapshot) { s.Sources = nil },
		"no summary":       func(s *database.Snapshot) { s.Summaries = nil },
		"two summaries":    func(s *database.Snapshot) { s.Summaries = append(s.Summaries, s.Summaries[0]) },
		"duplicate source": func(s *database.Snapshot) { s.Sources = append(s.Sources, s.Sources[0]) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			snapshot := testSnapshot()
			mutate(snapshot)

			_, err := NewExporter(dir).Export(context.Background(), snapshot)
			assert.ErrorIs(t, err, ErrInconsistentSnapshot)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestExporter_Export_KeepsPreviousFilesOnFailure(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir)

	_, err := exporter.Export(context.Background(), testSnapshot())
	require.NoError(t, err)
	before := readCSV(t, filepath.Join(dir, ArticlesFile))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exporter.Export(ctx, testSnapshot())
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, before, readCSV(t, filepath.Join(dir, ArticlesFile)))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestExporter_Export_RestoresPreviousFilesWhenPublishFails(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir)

	_, err := exporter.Export(context.Background(), testSnapshot())
	require.NoError(t, err)

	files := []string{ArticlesFile, SourcesFile, SummaryFile, CombinedFile}
	before := make(map[string][][]string, len(files))
	for _, name := range files {
		before[name] = readCSV(t, filepath.Join(dir, name))
	}

	exporter.rename = func(oldpath, newpath string) error {
		if strings.HasSuffix(oldpath, ".tmp") && filepath.Base(newpath) == SummaryFile {
			return errors.New("device busy")
		}
		return os.Rename(oldpath, newpath)
	}

	changed := testSnapshot()
	changed.Articles[0].Title = "Rewritten title"
	changed.Summaries[0].TotalArticles = 99

	_, err = exporter.Export(context.Background(), changed)
	require.Error(t, err)

	for _, name := range files {
		assert.Equal(t, before[name], readCSV(t, filepath.Join(dir, name)), name)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(files), "no temporaries or backups left behind")
}

func TestExporter_Export_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := NewExporter(file).Export(context.Background(), testSnapshot())
	assert.Error(t, err)
}
