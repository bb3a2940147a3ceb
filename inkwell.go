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


// Package inkwell turns photographed notes into cross-referenced study
// documents backed by a local document store.
package inkwell

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/inkwell/ai"
	"github.com/poiesic/inkwell/ai/openai"
	"github.com/poiesic/inkwell/core"
	"github.com/poiesic/inkwell/indexer"
	"github.com/poiesic/inkwell/pipeline"
	"github.com/poiesic/inkwell/retrieval"
	"github.com/poiesic/inkwell/storage"
	"github.com/poiesic/inkwell/storage/badger"
)

// excerptLength caps the stored excerpt of a saved document.
const excerptLength = 200

// ErrRunNotCompleted indicates an attempt to persist a run that did
// not produce a final document.
var ErrRunNotCompleted = errors.New("pipeline run did not complete")

// Workspace bundles the document store, the AI provider, the
// similarity search, and the processing pipeline behind one handle.
type Workspace struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	provider  ai.Provider
	search    *retrieval.Search
	driver    *pipeline.Driver
	logger    *slog.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig overrides the default AI endpoint configuration.
func WithAIConfig(config *ai.Config) WorkspaceOption {
	return func(o *workspaceOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider injects an AI provider directly, bypassing endpoint
// configuration. Intended for tests.
func WithProvider(provider ai.Provider) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.provider = provider
	}
}

// WithInMemoryStore keeps the document store in memory instead of on
// disk. Intended for tests and experiments.
func WithInMemoryStore() WorkspaceOption {
	return func(o *workspaceOptions) {
		o.inMemory = true
	}
}

// NewWorkspace opens a workspace rooted at the given storage path.
func NewWorkspace(filePath string, opts ...WorkspaceOption) (*Workspace, error) {
	options := &workspaceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	search, err := retrieval.NewSearch(documents)
	if err != nil {
		provider.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	driver, err := pipeline.NewDriver(provider, pipeline.WithSearch(search))
	if err != nil {
		provider.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	return &Workspace{
		backend:   backend,
		documents: documents,
		provider:  provider,
		search:    search,
		driver:    driver,
		logger:    slog.Default(),
	}, nil
}

// Close releases the provider and the document store.
func (w *Workspace) Close() error {
	if err := w.provider.Close(); err != nil {
		w.logger.Error("error closing AI provider", "err", err)
	}
	if err := w.documents.Close(); err != nil {
		w.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := w.backend.Close(); err != nil {
		w.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Documents exposes the underlying document repository.
func (w *Workspace) Documents() storage.DocumentRepository {
	return w.documents
}

// Search exposes the similarity search over stored documents.
func (w *Workspace) Search() *retrieval.Search {
	return w.search
}

// Process runs the note pipeline for one image and returns the
// terminal state. The pipeline itself never persists anything; call
// SaveResult to store a completed run.
func (w *Workspace) Process(ctx context.Context, input pipeline.Input) *pipeline.State {
	return w.driver.Run(ctx, input)
}

// NewIndexer creates an embedding backfill indexer over this
// workspace's document store.
func (w *Workspace) NewIndexer(opts ...indexer.Option) (*indexer.Indexer, error) {
	return indexer.NewIndexer(w.documents, w.provider.Embedder(), opts...)
}

// SaveResult persists the final document of a completed run, embedding
// it so future runs in the same course can retrieve it. Failed runs
// are not persisted.
func (w *Workspace) SaveResult(ctx context.Context, state *pipeline.State, title string) (*core.StoredDocument, error) {
	if state == nil || state.Status != pipeline.StatusCompleted {
		return nil, ErrRunNotCompleted
	}

	doc := &core.StoredDocument{
		CourseId: state.Input.CourseId,
		Title:    title,
		Excerpt:  makeExcerpt(state.FinalDocument),
		Contents: state.FinalDocument,
		Status:   core.DocumentStatusActive,
	}

	vector, err := w.provider.Embedder().EmbedText(ctx, state.FinalDocument)
	if err != nil {
		// Leave the vector for the indexer to backfill later.
		w.logger.Warn("embedding failed at save time, leaving to backfill", "err", err)
	} else {
		doc.Vector = indexer.NormalizeVector(vector)
	}

	saved, err := w.documents.PutDocuments(ctx, doc)
	if err != nil {
		return nil, err
	}

	w.logger.Info("run result saved",
		"id", saved[0].Id,
		"course", saved[0].CourseId,
		"embedded", len(saved[0].Vector) > 0)

	return saved[0], nil
}

func makeExcerpt(contents string) string {
	excerpt := strings.TrimSpace(contents)
	if runes := []rune(excerpt); len(runes) > excerptLength {
		excerpt = string(runes[:excerptLength])
	}
	return excerpt
}
