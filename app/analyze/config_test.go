package analyze

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfig_Overrides(t *testing.T) {
	yamlContent := `
engagement:
  word_weight: 0.6
  title_weight: 0.2
  image_bonus: 0.2
  word_cap: 300
  title_cap: 100
  scale: 10
categories:
  - name: tech
    keywords: [software, "open source"]
sources:
  The Verge: tech
`
	cfg, err := ParseConfig([]byte(yamlContent))
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Engagement.WordCap)
	assert.Equal(t, 10.0, cfg.Engagement.Scale)
	require.Len(t, cfg.Categories, 1)
	assert.Equal(t, "tech", cfg.Categories[0].Name)
	assert.Equal(t, []string{"software", "open source"}, cfg.Categories[0].Keywords)
	assert.Equal(t, map[string]string{"The Verge": "tech"}, cfg.Sources)
}

func TestParseConfig_PartialEngagementKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("engagement:\n  word_weight: 0.6\n"))
	require.NoError(t, err)

	want := DefaultConfig().Engagement
	want.WordWeight = 0.6
	assert.Equal(t, want, cfg.Engagement)
	assert.Equal(t, DefaultConfig().Categories, cfg.Categories)
}

func TestParseConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":           "categories: [",
		"zero cap":           "engagement: {word_weight: 1, word_cap: 0, title_cap: 10}",
		"negative weight":    "engagement: {word_weight: -1, word_cap: 10, title_cap: 10}",
		"unnamed category":   "categories: [{keywords: [a]}]",
		"no keywords":        "categories: [{name: tech}]",
		"duplicate category": "categories: [{name: a, keywords: [x]}, {name: a, keywords: [y]}]",
		"general redefined":  "categories: [{name: general, keywords: [x]}]",
		"unknown source cat": "sources: {Reuters: weather}",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "analyzer.yml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  ESPN: sports\n"), 0o644))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sports", cfg.Sources["ESPN"])
	assert.Equal(t, DefaultConfig().Categories, cfg.Categories)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
