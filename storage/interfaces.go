package storage

import (
	"context"

	"github.com/poiesic/inkwell/core"
)

// DocumentRepository provides operations for managing stored documents.
// Implementations must be thread-safe and support concurrent access.
//
// The pipeline itself only reads through CandidatesInScope; writes happen
// outside the pipeline, after a run reaches its terminal state.
type DocumentRepository interface {
	// PutDocuments inserts or replaces one or more documents.
	// For documents with ID=0, derives the ID from content hashing.
	// Sets CreatedAt if not already set and always refreshes UpdatedAt.
	// Returns the documents with IDs and timestamps populated.
	PutDocuments(ctx context.Context, docs ...*core.StoredDocument) ([]*core.StoredDocument, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.StoredDocument, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.StoredDocument, error)

	// DeleteDocuments removes documents by their IDs.
	// Also removes associated scope index entries.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// CandidatesInScope retrieves every document belonging to the given scope.
	// Callers apply their own status/embedding filtering; the repository
	// guarantees only that no document from another scope is returned.
	CandidatesInScope(ctx context.Context, courseID string) ([]*core.StoredDocument, error)

	// WithoutEmbeddings retrieves up to limit active documents that have no
	// embedding vector yet, for batch indexing.
	WithoutEmbeddings(ctx context.Context, limit int) ([]*core.StoredDocument, error)

	// UpdateEmbedding replaces the embedding vector of an existing document
	// and refreshes UpdatedAt. Returns ErrNotFound if the document doesn't exist.
	UpdateEmbedding(ctx context.Context, id core.ID, vector []float32) error

	// Close closes the storage backend and releases resources.
	Close() error
}
