// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/inkwell/core"
	"github.com/poiesic/inkwell/storage"
)

// DocumentRepository implements storage.DocumentRepository on BadgerDB.
type DocumentRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a document repository on the given backend.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &DocumentRepository{
		backend: backend,
		logger:  slog.Default().With("component", "document-repository"),
	}, nil
}

// PutDocuments inserts or replaces documents and maintains the scope index.
func (r *DocumentRepository) PutDocuments(ctx context.Context, docs ...*core.StoredDocument) ([]*core.StoredDocument, error) {
	now := time.Now().UTC()

	for _, doc := range docs {
		if doc.Id == 0 {
			doc.Id = core.IDFromContent(doc.CourseId + "\x00" + doc.Title + "\x00" + doc.Contents)
		}
		if doc.Status == 0 {
			doc.Status = core.DocumentStatusActive
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		doc.UpdatedAt = now
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			// Replacing a document may move it between scopes; drop the old
			// index entry first.
			prev, err := getDocumentTx(tx, doc.Id)
			if err == nil && prev.CourseId != doc.CourseId && prev.CourseId != "" {
				if err := tx.Delete(makeScopeKey(prev.CourseId, doc.Id)); err != nil {
					return err
				}
			}

			if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
				return err
			}
			if doc.CourseId != "" {
				if err := tx.Set(makeScopeKey(doc.CourseId, doc.Id), nil); err != nil {
					return err
				}
			}
		}
		return nil
	}, true)
	if err != nil {
		return nil, fmt.Errorf("putting documents: %w", err)
	}

	return docs, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.StoredDocument, error) {
	var doc *core.StoredDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = getDocumentTx(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocuments retrieves multiple documents, skipping missing IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.StoredDocument, error) {
	docs := make([]*core.StoredDocument, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := getDocumentTx(tx, id)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocuments removes documents and their scope index entries.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := getDocumentTx(tx, id)
			if err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentKey(id)); err != nil {
				return err
			}
			if doc.CourseId != "" {
				if err := tx.Delete(makeScopeKey(doc.CourseId, id)); err != nil {
					return err
				}
			}
		}
		return nil
	}, true)
}

// CandidatesInScope retrieves every document indexed under the given scope.
func (r *DocumentRepository) CandidatesInScope(ctx context.Context, courseID string) ([]*core.StoredDocument, error) {
	if courseID == "" {
		return nil, fmt.Errorf("%w: empty course id", storage.ErrInvalidQuery)
	}

	var docs []*core.StoredDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeScopePrefix(courseID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id := scopeKeyDocumentID(iter.Item().Key())
			doc, err := getDocumentTx(tx, id)
			if errors.Is(err, storage.ErrNotFound) {
				// Stale index entry; skip rather than fail the whole read.
				r.logger.Warn("scope index references missing document", "id", id, "course", courseID)
				continue
			}
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// WithoutEmbeddings retrieves up to limit active documents lacking a vector.
func (r *DocumentRepository) WithoutEmbeddings(ctx context.Context, limit int) ([]*core.StoredDocument, error) {
	var docs []*core.StoredDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && (limit <= 0 || len(docs) < limit); iter.Next() {
			item := iter.Item()
			var doc *core.StoredDocument
			err := item.Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc.Status != core.DocumentStatusActive || len(doc.Vector) > 0 {
				continue
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateEmbedding replaces the embedding vector of an existing document.
func (r *DocumentRepository) UpdateEmbedding(ctx context.Context, id core.ID, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := getDocumentTx(tx, id)
		if err != nil {
			return err
		}
		doc.Vector = vector
		doc.UpdatedAt = time.Now().UTC()
		return tx.Set(makeDocumentKey(id), storage.MarshalDocument(doc))
	}, true)
}

// Close is a no-op; the backend owns the database lifecycle.
func (r *DocumentRepository) Close() error {
	return nil
}

func getDocumentTx(tx *badger.Txn, id core.ID) (*core.StoredDocument, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var doc *core.StoredDocument
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
