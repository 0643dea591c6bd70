package direct

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docqa/webcrawl"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultUserAgent      = "docqa/1.0 (+https://github.com/poiesic/docqa)"
	DefaultMaxContentSize = 10 << 20
	DefaultMaxRedirects   = 5
	DefaultConcurrency    = 8
)

// ErrUnsupportedContent is reported for pages that are neither HTML nor text.
var ErrUnsupportedContent = errors.New("unsupported content type")

// Client fetches and converts pages itself, implementing webcrawl.Service
// without a hosted extraction service.
type Client struct {
	timeout        time.Duration
	userAgent      string
	maxContentSize int64
	maxRedirects   int
	concurrency    int

	fetcher   *fetcher
	converter *converter
	pool      *ants.Pool
	logger    *slog.Logger
}

var _ webcrawl.Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithTimeout sets the per-page fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("direct: timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithMaxContentSize caps the size of a fetched page in bytes.
func WithMaxContentSize(n int64) Option {
	return func(c *Client) error {
		if n <= 0 {
			return errors.New("direct: max content size must be positive")
		}
		c.maxContentSize = n
		return nil
	}
}

// WithConcurrency sets how many pages are fetched at once.
func WithConcurrency(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return errors.New("direct: concurrency must be positive")
		}
		c.concurrency = n
		return nil
	}
}

// New creates a Client. Close releases its worker pool.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		timeout:        DefaultTimeout,
		userAgent:      DefaultUserAgent,
		maxContentSize: DefaultMaxContentSize,
		maxRedirects:   DefaultMaxRedirects,
		concurrency:    DefaultConcurrency,
		logger:         slog.Default().With("component", "direct-crawler"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(c.concurrency)
	if err != nil {
		return nil, err
	}
	c.pool = pool
	c.fetcher = newFetcher(c.timeout, c.userAgent, c.maxContentSize, c.maxRedirects)
	c.converter = newConverter()
	return c, nil
}

// Close releases the worker pool.
func (c *Client) Close() error {
	c.pool.Release()
	return nil
}

type fetchOutcome struct {
	res *fetchResult
	err error
}

// fetchAll fetches urls concurrently. Outcomes are aligned with urls.
func (c *Client) fetchAll(ctx context.Context, urls []string) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()
			res, err := c.fetcher.fetch(ctx, u)
			outcomes[i] = fetchOutcome{res: res, err: err}
		})
		if err != nil {
			wg.Done()
			outcomes[i] = fetchOutcome{err: err}
		}
	}
	wg.Wait()
	return outcomes
}

// Extract fetches and converts every URL. Pages that fail to fetch, have an
// unsupported content type, or convert to empty text are reported in Failed.
func (c *Client) Extract(ctx context.Context, urls []string, depth webcrawl.ExtractDepth) (*webcrawl.ExtractResponse, error) {
	if len(urls) == 0 {
		return nil, webcrawl.ErrNoURLs
	}

	outcomes := c.fetchAll(ctx, urls)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &webcrawl.ExtractResponse{}
	for i, o := range outcomes {
		text, err := c.pageText(o, depth)
		if err != nil {
			c.logger.Debug("page extraction failed", "url", urls[i], "err", err)
			resp.Failed = append(resp.Failed, webcrawl.FailedPage{URL: urls[i], Error: err.Error()})
			continue
		}
		resp.Results = append(resp.Results, webcrawl.Page{URL: urls[i], RawContent: text})
	}
	return resp, nil
}

func (c *Client) pageText(o fetchOutcome, depth webcrawl.ExtractDepth) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	text, err := c.content(o.res, depth)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", webcrawl.ErrEmptyContent
	}
	return text, nil
}

// content renders a fetched page as text.
func (c *Client) content(res *fetchResult, depth webcrawl.ExtractDepth) (string, error) {
	switch {
	case isHTML(res.ContentType):
		return c.converter.convert(res.Body, depth)
	case isText(res.ContentType):
		return strings.TrimSpace(string(res.Body)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContent, mediaType(res.ContentType))
	}
}

// Map walks same-site links breadth first from req.URL. The seed is always
// the first URL returned. MaxDepth bounds the number of link hops, MaxBreadth
// the new links taken from any one page and Limit the total URLs returned.
// Categories and Instructions are hints for hosted services and are ignored.
func (c *Client) Map(ctx context.Context, req webcrawl.MapRequest) ([]string, error) {
	if req.URL == "" {
		return nil, webcrawl.ErrEmptyURL
	}
	seed, err := url.Parse(req.URL)
	if err != nil || (seed.Scheme != "http" && seed.Scheme != "https") {
		return nil, fmt.Errorf("direct: invalid seed url %q", req.URL)
	}

	maxDepth := req.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = webcrawl.DefaultLimit
	}

	start := normalize(seed)
	discovered := []string{start}
	seen := map[string]bool{start: true}
	frontier := []string{start}

	for depth := 0; depth < maxDepth && len(frontier) > 0 && len(discovered) < limit; depth++ {
		outcomes := c.fetchAll(ctx, frontier)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if depth == 0 && outcomes[0].err != nil {
			return nil, fmt.Errorf("direct: fetch seed: %w", outcomes[0].err)
		}

		var next []string
	pages:
		for i, o := range outcomes {
			if o.err != nil || !isHTML(o.res.ContentType) {
				continue
			}
			base, err := url.Parse(o.res.URL)
			if err != nil {
				continue
			}
			taken := 0
			for _, link := range extractLinks(base, o.res.Body) {
				if req.MaxBreadth > 0 && taken >= req.MaxBreadth {
					break
				}
				if seen[link] || !inScope(seed, link) {
					continue
				}
				seen[link] = true
				taken++
				discovered = append(discovered, link)
				next = append(next, link)
				if len(discovered) >= limit {
					break pages
				}
			}
			c.logger.Debug("page mapped", "url", frontier[i], "depth", depth, "new_links", taken)
		}
		frontier = next
	}

	return discovered, nil
}

// Crawl maps the site and extracts every discovered page.
func (c *Client) Crawl(ctx context.Context, req webcrawl.CrawlRequest) ([]webcrawl.Page, error) {
	urls, err := c.Map(ctx, webcrawl.MapRequest{
		URL:        req.URL,
		MaxDepth:   req.MaxDepth,
		MaxBreadth: req.MaxBreadth,
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.Extract(ctx, urls, req.ExtractDepth)
	if err != nil {
		return nil, err
	}
	if len(resp.Failed) > 0 {
		c.logger.Warn("some pages could not be extracted", "failed", len(resp.Failed), "total", len(urls))
	}
	return resp.Results, nil
}
