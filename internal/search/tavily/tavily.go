package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mohammad-safakhou/pestel/config"
	"github.com/mohammad-safakhou/pestel/internal/search"
	"github.com/mohammad-safakhou/pestel/internal/telemetry"
)

// Client talks to the Tavily search and extract APIs.
type Client struct {
	cfg       config.SearchConfig
	http      *http.Client
	telemetry *telemetry.Telemetry
}

var _ search.Searcher = (*Client)(nil)

// NewClient creates a new Tavily client.
func NewClient(cfg config.SearchConfig, tele *telemetry.Telemetry) *Client {
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		telemetry: tele,
	}
}

type searchRequest struct {
	Query           string `json:"query"`
	Topic           string `json:"topic,omitempty"`
	TimeRange       string `json:"time_range,omitempty"`
	MaxResults      int    `json:"max_results,omitempty"`
	ChunksPerSource int    `json:"chunks_per_source,omitempty"`
}

type searchResponse struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"results"`
}

type extractRequest struct {
	URLs []string `json:"urls"`
}

type extractResponse struct {
	Results []struct {
		URL        string `json:"url"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
}

// Search resolves each tagged query via /search, extracts full page text for
// the matched URLs via /extract, and merges titles back by URL. URLs that fail
// extraction are dropped. "general" queries use a year-wide recency window,
// "news" queries a month-wide one.
func (c *Client) Search(ctx context.Context, queries []search.TaggedQuery) ([]search.ContentItem, error) {
	var results []search.ContentItem
	for _, q := range queries {
		items, err := c.searchOne(ctx, q)
		if c.telemetry != nil {
			c.telemetry.RecordSearch(string(q.Tag), err)
		}
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", q.Query, err)
		}
		results = append(results, items...)
	}
	return search.EnrichContent(results, c.cfg.MinContentLength, c.cfg.FetchTimeout), nil
}

func (c *Client) searchOne(ctx context.Context, q search.TaggedQuery) ([]search.ContentItem, error) {
	timeRange := "month"
	if q.Tag == search.TagGeneral {
		timeRange = "year"
	}

	var searched searchResponse
	err := c.post(ctx, "/search", searchRequest{
		Query:           q.Query,
		Topic:           string(q.Tag),
		TimeRange:       timeRange,
		MaxResults:      c.cfg.MaxResults,
		ChunksPerSource: c.cfg.ChunksPerSource,
	}, &searched)
	if err != nil {
		return nil, err
	}
	if len(searched.Results) == 0 {
		return nil, nil
	}

	urls := make([]string, 0, len(searched.Results))
	titles := make(map[string]string, len(searched.Results))
	for _, r := range searched.Results {
		urls = append(urls, r.URL)
		titles[r.URL] = r.Title
	}

	var extracted extractResponse
	if err := c.post(ctx, "/extract", extractRequest{URLs: urls}, &extracted); err != nil {
		return nil, err
	}

	var items []search.ContentItem
	for _, r := range extracted.Results {
		title, ok := titles[r.URL]
		if !ok {
			continue
		}
		items = append(items, search.ContentItem{
			Query:   q.Query,
			URL:     r.URL,
			Title:   title,
			Content: r.RawContent,
		})
	}
	return items, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.TavilyAPIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("tavily %s status %d: %s", path, resp.StatusCode, string(raw))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
