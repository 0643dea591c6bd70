package direct

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"
)

// fetchResult is a successfully fetched page body.
type fetchResult struct {
	URL         string // Final URL after redirects
	Body        []byte
	ContentType string
}

// fetcher retrieves pages with size and redirect limits.
type fetcher struct {
	client         *http.Client
	userAgent      string
	maxContentSize int64
}

func newFetcher(timeout time.Duration, userAgent string, maxContentSize int64, maxRedirects int) *fetcher {
	return &fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (max %d)", maxRedirects)
				}
				return nil
			},
		},
		userAgent:      userAgent,
		maxContentSize: maxContentSize,
	}
}

// fetch retrieves urlStr. Any status other than 200 is an error.
func (f *fetcher) fetch(ctx context.Context, urlStr string) (*fetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/markdown,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	limitReader := io.LimitReader(resp.Body, f.maxContentSize+1)
	body, err := io.ReadAll(limitReader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if int64(len(body)) > f.maxContentSize {
		return nil, fmt.Errorf("content too large (exceeds %d bytes)", f.maxContentSize)
	}

	return &fetchResult{
		URL:         resp.Request.URL.String(),
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// mediaType returns the lowercased media type of a Content-Type header,
// defaulting to text/html when the header is missing or unparsable.
func mediaType(contentType string) string {
	if contentType == "" {
		return "text/html"
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "text/html"
	}
	return mt
}

func isHTML(contentType string) bool {
	switch mediaType(contentType) {
	case "text/html", "application/xhtml+xml":
		return true
	}
	return false
}

func isText(contentType string) bool {
	switch mediaType(contentType) {
	case "text/plain", "text/markdown", "text/x-markdown":
		return true
	}
	return false
}
