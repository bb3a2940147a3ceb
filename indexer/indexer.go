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


package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/inkwell/ai"
	"github.com/poiesic/inkwell/core"
	"github.com/poiesic/inkwell/storage"
)

// Config holds configuration for the backfill operation.
type Config struct {
	// BatchSize is the number of documents embedded per batch.
	BatchSize int

	// MaxRetries is the maximum number of attempts per embedding call.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:  32,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// Indexer embeds documents that lack a vector and writes the vectors
// back to the store.
type Indexer struct {
	documents storage.DocumentRepository
	embedder  ai.Embedder
	pool      *ants.Pool
	config    *Config
	logger    *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithPoolSize sets the worker pool size for concurrent batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			size = 1
		}
		if ix.pool != nil {
			ix.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		ix.pool = pool
		return nil
	}
}

// WithConfig overrides the default batch and retry configuration.
func WithConfig(config *Config) Option {
	return func(ix *Indexer) error {
		if config != nil {
			ix.config = config
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// NewIndexer creates a backfill indexer over the given repository.
func NewIndexer(documents storage.DocumentRepository, embedder ai.Embedder, opts ...Option) (*Indexer, error) {
	if documents == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	ix := &Indexer{
		documents: documents,
		embedder:  embedder,
		pool:      pool,
		config:    DefaultConfig(),
		logger:    slog.Default().With("component", "indexer"),
	}

	for _, opt := range opts {
		if err := opt(ix); err != nil {
			ix.Release()
			return nil, err
		}
	}

	return ix, nil
}

// Run embeds every document currently missing a vector. Batches run
// concurrently on the worker pool; the first batch error aborts the
// operation. Returns the number of documents indexed.
func (ix *Indexer) Run(ctx context.Context) (int, error) {
	pending, err := ix.documents.WithoutEmbeddings(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("listing unembedded documents: %w", err)
	}
	if len(pending) == 0 {
		ix.logger.Info("no documents need embedding")
		return 0, nil
	}

	ix.logger.Info("backfill starting",
		"documents", len(pending),
		"batch_size", ix.config.BatchSize)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		indexed  int
	)

	for start := 0; start < len(pending); start += ix.config.BatchSize {
		end := start + ix.config.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		wg.Add(1)
		submitErr := ix.pool.Submit(func() {
			defer wg.Done()
			if err := ix.processBatch(ctx, batch); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			indexed += len(batch)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return indexed, firstErr
	}

	ix.logger.Info("backfill complete", "indexed", indexed)
	return indexed, nil
}

// processBatch embeds one batch and writes the normalized vectors back.
func (ix *Indexer) processBatch(ctx context.Context, docs []*core.StoredDocument) error {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Contents
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = ix.embedder.EmbedTexts(ctx, texts)
		return err
	}, ix.config.MaxRetries, ix.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("embedding batch after %d attempts: %w", ix.config.MaxRetries, err)
	}

	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(docs), len(embeddings))
	}

	for i, doc := range docs {
		if err := ix.documents.UpdateEmbedding(ctx, doc.Id, NormalizeVector(embeddings[i])); err != nil {
			return fmt.Errorf("updating embedding for document %d: %w", doc.Id, err)
		}
	}
	return nil
}

// Release releases the worker pool. The indexer should not be used
// after calling Release.
func (ix *Indexer) Release() {
	if ix.pool != nil {
		ix.pool.Release()
	}
}
