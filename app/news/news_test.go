package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp_AcceptedLayouts(t *testing.T) {
	want := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

	cases := map[string]string{
		"rfc3339 zulu":    "2024-03-05T14:30:00Z",
		"rfc3339 offset":  "2024-03-05T16:30:00+02:00",
		"rfc3339 nano":    "2024-03-05T14:30:00.000Z",
		"no zone":         "2024-03-05T14:30:00",
		"space separated": "2024-03-05 14:30:00",
		"rfc1123z":        "Tue, 05 Mar 2024 14:30:00 +0000",
		"rfc1123":         "Tue, 05 Mar 2024 14:30:00 GMT",
		"rfc1123 utc":     "Tue, 05 Mar 2024 14:30:00 UTC",
		"padded":          "  2024-03-05T14:30:00Z \n",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseTimestamp(input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestamp_DateOnlyIsMidnightUTC(t *testing.T) {
	got, err := ParseTimestamp("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)
}

func TestParseTimestamp_Rejects(t *testing.T) {
	for _, input := range []string{
		"", "   ", "yesterday", "05/03/2024", "2024-13-45T00:00:00Z",
		"Tue, 05 Mar 2024 14:30:00 PST",
		"Tue, 05 Mar 2024 14:30:00 EST",
		"Tue, 05 Mar 2024 14:30:00 CET",
	} {
		_, err := ParseTimestamp(input)
		assert.ErrorIs(t, err, ErrUnparseableTimestamp, "input %q", input)
	}
}

func TestFormatTimestamp_RoundTrip(t *testing.T) {
	original := time.Date(2024, 3, 5, 14, 30, 0, 123000000, time.FixedZone("CET", 3600))

	parsed, err := ParseTimestamp(FormatTimestamp(original))
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed))
	assert.Equal(t, "", FormatTimestamp(time.Time{}))
}

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"HTTPS://Example.COM/News/Item?id=1#comments": "https://example.com/News/Item?id=1",
		"http://example.com:80/a":                     "http://example.com/a",
		"https://example.com:443/a":                   "https://example.com/a",
		"https://example.com:8443/a":                  "https://example.com:8443/a",
		"  https://example.com/a  ":                   "https://example.com/a",
		"http://[::1]:8080/x":                         "http://[::1]:8080/x",
		"http://[::1]:80/x":                           "http://[::1]/x",
		"https://[2001:DB8::1]/x":                     "https://[2001:db8::1]/x",
	}

	for input, want := range cases {
		got, err := NormalizeURL(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)

		again, err := NormalizeURL(got)
		require.NoError(t, err)
		assert.Equal(t, got, again, "normalisation must be a fixed point")
	}
}

func TestNormalizeURL_Rejects(t *testing.T) {
	for _, input := range []string{"", "not a url", "ftp://example.com/file", "https://", "/relative/path", "mailto:news@example.com"} {
		_, err := NormalizeURL(input)
		assert.ErrorIs(t, err, ErrMalformedURL, "input %q", input)
	}
}

func TestArticleID_StableAcrossEquivalentURLs(t *testing.T) {
	a, err := ArticleID("https://example.com/story")
	require.NoError(t, err)
	b, err := ArticleID("HTTPS://EXAMPLE.com:443/story#top")
	require.NoError(t, err)
	c, err := ArticleID("https://example.com/other-story")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestCleanedArticle_Raw(t *testing.T) {
	article := CleanedArticle{
		Title:       "Title",
		Description: "Desc",
		URL:         "https://example.com/a",
		SourceName:  "Example",
		PublishedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		ImageURL:    "https://example.com/a.png",
	}

	raw := article.Raw()
	assert.Equal(t, "2024-01-02T03:04:05Z", raw.PublishedAt)
	assert.Equal(t, article.URL, raw.URL)
	assert.Equal(t, article.ImageURL, raw.ImageURL)
}
