package analyze

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultCategory = "general"

// Config holds the fixed tables the analyzer works from. NewAnalyzer copies
// it, so a Config may be reused and changed afterwards without affecting an
// analyzer built from it.
type Config struct {
	Engagement EngagementWeights `yaml:"engagement"`
	Categories []CategoryRule    `yaml:"categories"`
	// Sources maps a source name (case-insensitive) to its category.
	Sources map[string]string `yaml:"sources"`
}

// EngagementWeights parameterise
//
//	score = Scale * (WordWeight*min(words/WordCap, 1) + TitleWeight*min(titleLen/TitleCap, 1) + ImageBonus*hasImage)
//
// rounded to two decimals.
type EngagementWeights struct {
	WordWeight  float64 `yaml:"word_weight"`
	TitleWeight float64 `yaml:"title_weight"`
	ImageBonus  float64 `yaml:"image_bonus"`
	WordCap     int     `yaml:"word_cap"`
	TitleCap    int     `yaml:"title_cap"`
	Scale       float64 `yaml:"scale"`
}

type CategoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

func DefaultConfig() Config {
	return Config{
		Engagement: EngagementWeights{
			WordWeight:  0.5,
			TitleWeight: 0.3,
			ImageBonus:  0.2,
			WordCap:     400,
			TitleCap:    120,
			Scale:       100,
		},
		Categories: []CategoryRule{
			{Name: "ai", Keywords: []string{"ai", "artificial intelligence", "machine learning"}},
			{Name: "finance", Keywords: []string{"stock", "stocks", "market", "markets", "economy", "financial"}},
			{Name: "sports", Keywords: []string{"sport", "sports", "game", "match", "player"}},
			{Name: "entertainment", Keywords: []string{"movie", "film", "celebrity", "entertainment"}},
		},
		Sources: map[string]string{},
	}
}

// LoadConfig reads analyzer tables from a YAML file. Missing fields fall
// back to DefaultConfig. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig, so every field left out keeps
// its default. A categories list given in the file replaces the default table.
func ParseConfig(data []byte) (Config, error) {
	parsed := DefaultConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if parsed.Sources == nil {
		parsed.Sources = map[string]string{}
	}

	if err := parsed.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid analyzer config: %w", err)
	}

	return parsed, nil
}

func (c Config) Validate() error {
	w := c.Engagement
	nonNegative := map[string]float64{
		"word weight":  w.WordWeight,
		"title weight": w.TitleWeight,
		"image bonus":  w.ImageBonus,
		"scale":        w.Scale,
	}
	for name, value := range nonNegative {
		if value < 0 {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}
	if w.WordCap <= 0 {
		return fmt.Errorf("word cap must be positive")
	}
	if w.TitleCap <= 0 {
		return fmt.Errorf("title cap must be positive")
	}

	known := map[string]bool{DefaultCategory: true}
	for i, rule := range c.Categories {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return fmt.Errorf("category at index %d has no name", i)
		}
		if name == DefaultCategory {
			return fmt.Errorf("category at index %d: %q is the fallback and cannot have keywords", i, DefaultCategory)
		}
		if known[name] {
			return fmt.Errorf("category %q is defined twice", name)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("category %q must have at least one keyword", name)
		}
		known[name] = true
	}

	for source, category := range c.Sources {
		if strings.TrimSpace(source) == "" {
			return fmt.Errorf("source mapping with empty source name")
		}
		if !known[category] {
			return fmt.Errorf("source %q maps to unknown category %q", source, category)
		}
	}

	return nil
}
