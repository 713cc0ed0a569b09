package extract

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/news-etl/app/news"
)

// FeedSource fetches an RSS or Atom feed and maps its items to raw records.
type FeedSource struct {
	url        string
	sourceName string
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string
	timeout    time.Duration
}

// NewFeedSource builds a feed source. An empty sourceName uses the feed title.
func NewFeedSource(url, sourceName string, httpClient *http.Client, userAgent string, timeout time.Duration) *FeedSource {
	return &FeedSource{
		url:        url,
		sourceName: sourceName,
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

func (s *FeedSource) Name() string {
	return s.url
}

func (s *FeedSource) Extract(ctx context.Context) ([]news.RawRecord, error) {
	data, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	feed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	sourceName := cmp.Or(s.sourceName, feed.Title)

	records := make([]news.RawRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		records = append(records, s.record(item, sourceName))
	}

	return records, nil
}

func (s *FeedSource) fetch(ctx context.Context) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// record prefers the dates gofeed parsed and otherwise passes the raw string
// on for the validator to classify.
func (s *FeedSource) record(item *gofeed.Item, sourceName string) news.RawRecord {
	record := news.RawRecord{
		Title:       item.Title,
		Description: item.Description,
		Content:     item.Content,
		URL:         cmp.Or(item.Link, linkFromGUID(item.GUID)),
		SourceName:  sourceName,
		PublishedAt: item.Published,
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
		if item.Published == "" {
			record.PublishedAt = item.Updated
		}
	}
	if published != nil {
		record.PublishedAt = news.FormatTimestamp(*published)
	}

	if item.Image != nil {
		record.ImageURL = item.Image.URL
	}
	if record.ImageURL == "" {
		for _, enclosure := range item.Enclosures {
			if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
				record.ImageURL = enclosure.URL
				break
			}
		}
	}

	return record
}

func linkFromGUID(guid string) string {
	if strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://") {
		return guid
	}
	return ""
}
