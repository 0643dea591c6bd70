package ai

import "errors"

var (
	// ErrEmptyCompletion is returned when a chat model responds without any choices.
	ErrEmptyCompletion = errors.New("chat model returned no choices")

	// ErrEmbeddingCount is returned when an embedder returns a different number of
	// vectors than texts it was given.
	ErrEmbeddingCount = errors.New("embedding count does not match input count")
)
