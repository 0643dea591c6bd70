package webcrawl

import "context"

// ExtractDepth selects how thoroughly a page is extracted.
type ExtractDepth string

const (
	DepthBasic    ExtractDepth = "basic"
	DepthAdvanced ExtractDepth = "advanced"
)

// Default discovery bounds.
const (
	DefaultMaxDepth   = 5
	DefaultMaxBreadth = 100
	DefaultLimit      = 500
)

// DefaultCategories restricts discovery to documentation pages.
var DefaultCategories = []string{"Documentation"}

// MapRequest describes a site discovery.
type MapRequest struct {
	URL          string
	MaxDepth     int
	MaxBreadth   int // Links followed per page
	Limit        int // Total URLs returned
	Categories   []string
	Instructions string
}

// NewMapRequest returns a MapRequest for url with the default bounds.
func NewMapRequest(url string) MapRequest {
	return MapRequest{
		URL:        url,
		MaxDepth:   DefaultMaxDepth,
		MaxBreadth: DefaultMaxBreadth,
		Limit:      DefaultLimit,
		Categories: append([]string(nil), DefaultCategories...),
	}
}

// CrawlRequest describes a discovery that also extracts every page found.
type CrawlRequest struct {
	URL          string
	MaxDepth     int
	MaxBreadth   int
	Limit        int
	ExtractDepth ExtractDepth
	Instructions string
}

// NewCrawlRequest returns a CrawlRequest for url with the default bounds.
func NewCrawlRequest(url string) CrawlRequest {
	return CrawlRequest{
		URL:          url,
		MaxDepth:     DefaultMaxDepth,
		MaxBreadth:   DefaultMaxBreadth,
		Limit:        DefaultLimit,
		ExtractDepth: DepthAdvanced,
	}
}

// Page is the extracted content of one URL.
type Page struct {
	URL        string
	RawContent string
}

// FailedPage is a URL the service could not extract.
type FailedPage struct {
	URL   string
	Error string
}

// ExtractResponse is the outcome of one extract request.
// Results and Failed together account for the requested URLs the service reported on.
type ExtractResponse struct {
	Results []Page
	Failed  []FailedPage
}

// Mapper discovers the page URLs of a site.
type Mapper interface {
	Map(ctx context.Context, req MapRequest) ([]string, error)
}

// Extractor fetches the content of a batch of URLs in a single request.
// A non-nil error means the whole request failed; per-page failures are
// reported in ExtractResponse.Failed.
type Extractor interface {
	Extract(ctx context.Context, urls []string, depth ExtractDepth) (*ExtractResponse, error)
}

// Crawler discovers and extracts pages in one call.
type Crawler interface {
	Crawl(ctx context.Context, req CrawlRequest) ([]Page, error)
}

// Service is a backend offering all three operations.
type Service interface {
	Mapper
	Extractor
	Crawler
}
