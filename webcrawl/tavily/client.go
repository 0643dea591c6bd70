package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/poiesic/docqa/webcrawl"
)

// maxErrorBody caps how much of a failed response is kept for the error message.
const maxErrorBody = 4 << 10

// Client is a Tavily REST client implementing webcrawl.Service.
// It is safe for concurrent use; all requests share one rate limiter.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ webcrawl.Service = (*Client)(nil)

// New creates a client authenticating with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tavily: %w", webcrawl.ErrMissingAPIKey)
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
		logger:  slog.Default().With("component", "tavily"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type mapPayload struct {
	URL          string   `json:"url"`
	MaxDepth     int      `json:"max_depth,omitempty"`
	MaxBreadth   int      `json:"max_breadth,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

type mapResponse struct {
	BaseURL string   `json:"base_url"`
	Results []string `json:"results"`
}

// Map discovers the URLs under req.URL.
func (c *Client) Map(ctx context.Context, req webcrawl.MapRequest) ([]string, error) {
	if req.URL == "" {
		return nil, webcrawl.ErrEmptyURL
	}

	var resp mapResponse
	err := c.post(ctx, "/map", mapPayload{
		URL:          req.URL,
		MaxDepth:     req.MaxDepth,
		MaxBreadth:   req.MaxBreadth,
		Limit:        req.Limit,
		Categories:   req.Categories,
		Instructions: req.Instructions,
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("mapped site", "url", req.URL, "urls", len(resp.Results))
	return resp.Results, nil
}

type extractPayload struct {
	URLs         []string `json:"urls"`
	ExtractDepth string   `json:"extract_depth,omitempty"`
}

type pageResult struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

type failedResult struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

type extractResponse struct {
	Results       []pageResult   `json:"results"`
	FailedResults []failedResult `json:"failed_results"`
}

// Extract fetches the content of urls in one request.
func (c *Client) Extract(ctx context.Context, urls []string, depth webcrawl.ExtractDepth) (*webcrawl.ExtractResponse, error) {
	if len(urls) == 0 {
		return nil, webcrawl.ErrNoURLs
	}

	var resp extractResponse
	if err := c.post(ctx, "/extract", extractPayload{URLs: urls, ExtractDepth: string(depth)}, &resp); err != nil {
		return nil, err
	}

	out := &webcrawl.ExtractResponse{
		Results: make([]webcrawl.Page, 0, len(resp.Results)),
		Failed:  make([]webcrawl.FailedPage, 0, len(resp.FailedResults)),
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, webcrawl.Page{URL: r.URL, RawContent: r.RawContent})
	}
	for _, f := range resp.FailedResults {
		out.Failed = append(out.Failed, webcrawl.FailedPage{URL: f.URL, Error: f.Error})
	}
	return out, nil
}

type crawlPayload struct {
	URL          string `json:"url"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	MaxBreadth   int    `json:"max_breadth,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	ExtractDepth string `json:"extract_depth,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type crawlResponse struct {
	BaseURL string       `json:"base_url"`
	Results []pageResult `json:"results"`
}

// Crawl discovers and extracts the pages under req.URL in one request.
func (c *Client) Crawl(ctx context.Context, req webcrawl.CrawlRequest) ([]webcrawl.Page, error) {
	if req.URL == "" {
		return nil, webcrawl.ErrEmptyURL
	}

	var resp crawlResponse
	err := c.post(ctx, "/crawl", crawlPayload{
		URL:          req.URL,
		MaxDepth:     req.MaxDepth,
		MaxBreadth:   req.MaxBreadth,
		Limit:        req.Limit,
		ExtractDepth: string(req.ExtractDepth),
		Instructions: req.Instructions,
	}, &resp)
	if err != nil {
		return nil, err
	}

	pages := make([]webcrawl.Page, 0, len(resp.Results))
	for _, r := range resp.Results {
		pages = append(pages, webcrawl.Page{URL: r.URL, RawContent: r.RawContent})
	}
	return pages, nil
}

// post sends payload as JSON to path and decodes a 2xx response into out.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("tavily %s: rate limiter: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("tavily %s: marshal request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("tavily %s: create request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tavily %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request completed", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("tavily %s: %w", path, &webcrawl.APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tavily %s: %w: %v", path, webcrawl.ErrMalformedResponse, err)
	}
	return nil
}

// errorMessage pulls the human-readable message out of an error body.
// Tavily reports errors as {"detail":{"error":"..."}}, though some proxies
// answer with {"detail":"..."} or plain text.
func errorMessage(raw []byte) string {
	var nested struct {
		Detail struct {
			Error string `json:"error"`
		} `json:"detail"`
	}
	if json.Unmarshal(raw, &nested) == nil && nested.Detail.Error != "" {
		return nested.Detail.Error
	}

	var flat struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &flat) == nil && flat.Detail != "" {
		return flat.Detail
	}

	return strings.TrimSpace(string(raw))
}
