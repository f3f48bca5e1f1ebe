package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SearchResult is one hit returned by the web search provider.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchClient queries the Tavily web search API for fresh source material.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults, days int, domains []string) ([]SearchResult, error)
}

type searchClient struct {
	client  *http.Client
	baseURL string
	apiKey  func(ctx context.Context) string
	logger  zerolog.Logger
}

// NewSearchClient creates a SearchClient against the given base URL.
func NewSearchClient(baseURL string, timeout time.Duration, apiKey func(ctx context.Context) string, logger zerolog.Logger) SearchClient {
	return &searchClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.With().Str("service", "SearchClient").Logger(),
	}
}

func (c *searchClient) Search(ctx context.Context, query string, maxResults, days int, domains []string) ([]SearchResult, error) {
	reqBody, err := json.Marshal(map[string]any{
		"api_key":         c.apiKey(ctx),
		"query":           query,
		"search_depth":    "basic",
		"max_results":     maxResults,
		"days":            days,
		"include_domains": domains,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling search endpoint: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	c.logger.Debug().Int("results", len(parsed.Results)).Str("query", query).Msg("Search finished")
	return parsed.Results, nil
}
