package indexer

import "errors"

var (
	// ErrRepositoryRequired is returned when a document repository is not provided.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidMaxAttempts is returned when retry is configured with
	// a non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
