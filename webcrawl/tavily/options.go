package tavily

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the hosted Tavily API.
	DefaultBaseURL = "https://api.tavily.com"

	// DefaultTimeout bounds a single request. Advanced extraction of a full
	// batch routinely takes tens of seconds.
	DefaultTimeout = 120 * time.Second

	// DefaultRequestsPerSecond and DefaultBurst allow every batch of a typical
	// run to start at once while capping sustained traffic.
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 25
)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) error {
		if u == "" {
			return errors.New("tavily: base url must not be empty")
		}
		c.baseURL = strings.TrimSuffix(u, "/")
		return nil
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("tavily: http client must not be nil")
		}
		c.http = hc
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("tavily: timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithRateLimit sets the token bucket used for outgoing requests.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *Client) error {
		if requestsPerSecond <= 0 || burst <= 0 {
			return errors.New("tavily: rate limit and burst must be positive")
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
		return nil
	}
}
