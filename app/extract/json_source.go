package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lysyi3m/news-etl/app/news"
)

// JSONFileSource reads a batch from a file holding either a NewsAPI style
// response or a plain array of records.
type JSONFileSource struct {
	path string
}

func NewJSONFileSource(path string) *JSONFileSource {
	return &JSONFileSource{path: path}
}

func (s *JSONFileSource) Name() string {
	return s.path
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

func (s *JSONFileSource) Extract(ctx context.Context) ([]news.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseJSON(data)
}

func ParseJSON(data []byte) ([]news.RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	if trimmed[0] == '[' {
		var records []news.RawRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to parse JSON records: %w", err)
		}
		return records, nil
	}

	var resp newsAPIResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if resp.Status == "error" {
		return nil, fmt.Errorf("feed returned error %s: %s", resp.Code, resp.Message)
	}

	records := make([]news.RawRecord, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		records = append(records, news.RawRecord{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			PublishedAt: a.PublishedAt,
			ImageURL:    a.URLToImage,
		})
	}

	return records, nil
}
