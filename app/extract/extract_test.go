package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/news-etl/app/news"
)

const newsAPIBody = `{
  "status": "ok",
  "totalResults": 2,
  "articles": [
    {
      "source": {"id": "reuters", "name": "Reuters"},
      "title": "Markets rally",
      "description": "Stocks closed higher.",
      "url": "https://example.com/markets",
      "urlToImage": "https://example.com/markets.jpg",
      "publishedAt": "2024-03-05T14:30:00Z",
      "content": "Full text"
    },
    {
      "source": {"id": null, "name": "BBC News"},
      "title": "",
      "url": "https://example.com/empty",
      "publishedAt": "2024-03-05T15:00:00Z"
    }
  ]
}`

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <link>https://example.com</link>
    <description>Example</description>
    <item>
      <title>First &lt;b&gt;item&lt;/b&gt;</title>
      <link>https://example.com/first</link>
      <description>First description</description>
      <pubDate>Tue, 05 Mar 2024 09:00:00 GMT</pubDate>
      <enclosure url="https://example.com/first.jpg" length="100" type="image/jpeg"/>
    </item>
    <item>
      <title>Second item</title>
      <guid>https://example.com/second</guid>
      <pubDate>sometime</pubDate>
    </item>
  </channel>
</rss>`

type stubSource struct {
	name    string
	records []news.RawRecord
	err     error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Extract(context.Context) ([]news.RawRecord, error) {
	return s.records, s.err
}

func TestParseJSON_NewsAPI(t *testing.T) {
	records, err := ParseJSON([]byte(newsAPIBody))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, news.RawRecord{
		Title:       "Markets rally",
		Description: "Stocks closed higher.",
		Content:     "Full text",
		URL:         "https://example.com/markets",
		SourceName:  "Reuters",
		PublishedAt: "2024-03-05T14:30:00Z",
		ImageURL:    "https://example.com/markets.jpg",
	}, records[0])
	assert.Equal(t, "BBC News", records[1].SourceName)
	assert.Empty(t, records[1].Title)
}

func TestParseJSON_FlatArray(t *testing.T) {
	records, err := ParseJSON([]byte(`[{"title":"A","url":"https://example.com/a","source_name":"X","published_at":"2024-03-05"}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "X", records[0].SourceName)
	assert.Equal(t, "2024-03-05", records[0].PublishedAt)
}

func TestParseJSON_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":       "  ",
		"invalid":     "{nope",
		"error reply": `{"status":"error","code":"apiKeyInvalid","message":"bad key"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSON([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestJSONFileSource_Extract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(newsAPIBody), 0o644))

	records, err := NewJSONFileSource(path).Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = NewJSONFileSource(filepath.Join(t.TempDir(), "missing.json")).Extract(context.Background())
	assert.Error(t, err)
}

func TestFeedSource_Extract(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssBody))
	}))
	defer server.Close()

	source := NewFeedSource(server.URL, "", server.Client(), "news-etl/test", 5*time.Second)
	records, err := source.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "news-etl/test", userAgent)

	assert.Equal(t, "First <b>item</b>", records[0].Title)
	assert.Equal(t, "https://example.com/first", records[0].URL)
	assert.Equal(t, "Example Feed", records[0].SourceName)
	assert.Equal(t, "2024-03-05T09:00:00Z", records[0].PublishedAt)
	assert.Equal(t, "https://example.com/first.jpg", records[0].ImageURL)

	assert.Equal(t, "https://example.com/second", records[1].URL)
	assert.Equal(t, "sometime", records[1].PublishedAt)
}

func TestFeedSource_Extract_SourceNameOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssBody))
	}))
	defer server.Close()

	records, err := NewFeedSource(server.URL, "Custom", server.Client(), "ua", time.Second).Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Custom", records[0].SourceName)
}

func TestFeedSource_Extract_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewFeedSource(server.URL, "", server.Client(), "ua", time.Second).Extract(context.Background())
	assert.ErrorContains(t, err, "502")
}

func TestFeedSource_Extract_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	_, err := NewFeedSource(server.URL, "", server.Client(), "ua", 50*time.Millisecond).Extract(context.Background())
	assert.Error(t, err)
}

func TestMultiSource_Extract(t *testing.T) {
	a := stubSource{name: "a", records: []news.RawRecord{{Title: "1"}, {Title: "2"}}}
	b := stubSource{name: "b", err: errors.New("down")}
	c := stubSource{name: "c", records: []news.RawRecord{{Title: "3"}}}

	records, err := NewMultiSource(a, b, c).Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []news.RawRecord{{Title: "1"}, {Title: "2"}, {Title: "3"}}, records)

	_, err = NewMultiSource(b, b).Extract(context.Background())
	assert.ErrorContains(t, err, "all sources failed")

	_, err = NewMultiSource().Extract(context.Background())
	assert.Error(t, err)
}
