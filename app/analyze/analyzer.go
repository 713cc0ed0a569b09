package analyze

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/lysyi3m/news-etl/app/news"
)

type Analyzer struct {
	weights EngagementWeights
	rules   []rule
	sources map[string]string
	rank    map[string]int
}

type rule struct {
	category string
	phrases  []string
}

// NewAnalyzer builds an analyzer from a validated config. The config is
// copied, later changes to it have no effect.
func NewAnalyzer(cfg Config) *Analyzer {
	a := &Analyzer{
		weights: cfg.Engagement,
		rules:   make([]rule, 0, len(cfg.Categories)),
		sources: make(map[string]string, len(cfg.Sources)),
		rank:    make(map[string]int, len(cfg.Categories)+1),
	}

	for i, c := range cfg.Categories {
		r := rule{category: strings.TrimSpace(c.Name)}
		for _, kw := range c.Keywords {
			if phrase := words(kw); phrase != "" {
				r.phrases = append(r.phrases, " "+phrase+" ")
			}
		}
		a.rules = append(a.rules, r)
		a.rank[r.category] = i
	}
	a.rank[DefaultCategory] = len(cfg.Categories)

	for name, category := range cfg.Sources {
		a.sources[sourceKey(name)] = category
	}

	return a
}

// Run derives per-article metrics, per-source rollups and the batch summary.
// Articles keep input order, sources are ordered by name.
func (a *Analyzer) Run(cleaned []news.CleanedArticle) ([]news.AnalyzedArticle, []news.Source, news.AnalyticsSummary) {
	analyzed := make([]news.AnalyzedArticle, 0, len(cleaned))
	for _, article := range cleaned {
		analyzed = append(analyzed, a.Article(article))
	}

	return analyzed, a.Sources(analyzed), Summarize(analyzed)
}

func (a *Analyzer) Article(article news.CleanedArticle) news.AnalyzedArticle {
	published := article.PublishedAt.UTC()

	return news.AnalyzedArticle{
		CleanedArticle:  article,
		EngagementScore: a.Engagement(article),
		HourOfDay:       published.Hour(),
		DayOfWeek:       int(published.Weekday()),
		Category:        a.Category(article),
	}
}

func (a *Analyzer) Engagement(article news.CleanedArticle) float64 {
	w := a.weights

	words := math.Min(float64(article.WordCount)/float64(w.WordCap), 1)
	title := math.Min(float64(article.TitleLength)/float64(w.TitleCap), 1)
	image := 0.0
	if article.HasImage {
		image = 1
	}

	score := w.Scale * (w.WordWeight*words + w.TitleWeight*title + w.ImageBonus*image)
	return math.Round(score*100) / 100
}

// Category checks the source table first, then the keyword rules in order.
func (a *Analyzer) Category(article news.CleanedArticle) string {
	if category, ok := a.sources[sourceKey(article.SourceName)]; ok {
		return category
	}

	text := " " + words(article.Title+" "+article.Description) + " "
	for _, r := range a.rules {
		for _, phrase := range r.phrases {
			if strings.Contains(text, phrase) {
				return r.category
			}
		}
	}

	return DefaultCategory
}

// SourceCategory returns the configured category for a source, if any.
func (a *Analyzer) SourceCategory(name string) (string, bool) {
	category, ok := a.sources[sourceKey(name)]
	return category, ok
}

func (a *Analyzer) Sources(analyzed []news.AnalyzedArticle) []news.Source {
	counts := make(map[string]int)
	categories := make(map[string]map[string]int)

	for _, article := range analyzed {
		name := article.SourceName
		counts[name]++
		if categories[name] == nil {
			categories[name] = make(map[string]int)
		}
		categories[name][article.Category]++
	}

	sources := make([]news.Source, 0, len(counts))
	for name, count := range counts {
		category, ok := a.SourceCategory(name)
		if !ok {
			category = a.modal(categories[name])
		}
		sources = append(sources, news.Source{
			Name:         name,
			ArticleCount: count,
			Category:     category,
		})
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})

	return sources
}

func (a *Analyzer) modal(tally map[string]int) string {
	best, bestCount := DefaultCategory, 0
	for category, count := range tally {
		if count > bestCount || (count == bestCount && a.before(category, best)) {
			best, bestCount = category, count
		}
	}
	return best
}

func (a *Analyzer) before(x, y string) bool {
	rx, okx := a.rank[x]
	ry, oky := a.rank[y]
	switch {
	case okx && oky:
		return rx < ry
	case okx != oky:
		return okx
	default:
		return x < y
	}
}

// Summarize aggregates a full batch. An empty batch gives zero values.
func Summarize(analyzed []news.AnalyzedArticle) news.AnalyticsSummary {
	var summary news.AnalyticsSummary
	if len(analyzed) == 0 {
		return summary
	}

	sources := make(map[string]struct{})
	total := 0.0
	for i, article := range analyzed {
		sources[article.SourceName] = struct{}{}
		total += article.EngagementScore

		published := article.PublishedAt.UTC()
		if i == 0 || published.Before(summary.DateRangeStart) {
			summary.DateRangeStart = published
		}
		if i == 0 || published.After(summary.DateRangeEnd) {
			summary.DateRangeEnd = published
		}
	}

	summary.TotalArticles = len(analyzed)
	summary.UniqueSources = len(sources)
	summary.AvgEngagement = math.Round(total/float64(len(analyzed))*10000) / 10000

	return summary
}

// words lower-cases s and keeps only letter/digit runs separated by single spaces.
func words(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func sourceKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
