package vectorstore

import "errors"

var (
	// ErrMissingSource is returned when a stored document has no source metadata.
	ErrMissingSource = errors.New("document has no source metadata")

	// ErrInvalidURL is returned when a store endpoint cannot be parsed.
	ErrInvalidURL = errors.New("invalid vector store url")
)
