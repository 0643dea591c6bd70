package webcrawl

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyURL is returned when a request has no seed URL.
	ErrEmptyURL = errors.New("url is required")

	// ErrNoURLs is returned when Extract is called with an empty batch.
	ErrNoURLs = errors.New("at least one url is required")

	// ErrMissingAPIKey is returned when a hosted backend is created without credentials.
	ErrMissingAPIKey = errors.New("api key is required")

	// ErrEmptyContent is reported for pages that produced no text.
	ErrEmptyContent = errors.New("page has no content")

	// ErrMalformedResponse is returned when a service response cannot be decoded.
	ErrMalformedResponse = errors.New("malformed service response")
)

// APIError is a non-2xx response from a crawl service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("crawl service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("crawl service returned status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed if sent again later.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
