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


package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/poiesic/inkwell/core"
	"github.com/poiesic/inkwell/storage"
)

const (
	// DefaultTopK is the number of neighbors returned when the query
	// does not say otherwise.
	DefaultTopK = 3

	// DefaultFloor is the minimum similarity for a neighbor to count
	// as related.
	DefaultFloor = 0.4

	// relatedFloor is the looser floor used for document-to-document
	// lookups, where the query vector is itself a stored document.
	relatedFloor = 0.3

	// excerptLimit caps the excerpt carried into search results.
	excerptLimit = 500
)

// Query describes a similarity search over one course scope.
type Query struct {
	// Vector is the query embedding.
	Vector []float32
	// CourseId restricts candidates to a single course.
	CourseId string
	// TopK is the maximum number of results. Zero means DefaultTopK.
	TopK int
	// Floor drops results whose similarity falls below it. Zero means
	// DefaultFloor; use a negative value to disable the floor.
	Floor float64
	// Exclude lists document IDs never returned, typically the document
	// being processed.
	Exclude []core.ID
}

// Search finds stored documents similar to a query embedding.
type Search struct {
	documents storage.DocumentRepository
	logger    *slog.Logger
}

// Option configures a Search.
type Option func(*Search) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Search) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearch creates a new similarity search over the given repository.
func NewSearch(documents storage.DocumentRepository, opts ...Option) (*Search, error) {
	if documents == nil {
		return nil, errors.New("document repository required")
	}

	s := &Search{
		documents: documents,
		logger:    slog.Default().With("component", "retrieval"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar ranks every candidate in the query's course scope by cosine
// similarity, keeps the top K, then applies the similarity floor.
func (s *Search) FindSimilar(ctx context.Context, query Query) ([]*core.RelatedDocument, error) {
	if len(query.Vector) == 0 {
		return nil, ErrEmptyVector
	}
	if query.CourseId == "" {
		return nil, ErrEmptyScope
	}

	topK := query.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	floor := query.Floor
	if floor == 0 {
		floor = DefaultFloor
	}

	candidates, err := s.documents.CandidatesInScope(ctx, query.CourseId)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	excluded := make(map[core.ID]bool, len(query.Exclude))
	for _, id := range query.Exclude {
		excluded[id] = true
	}

	scored := make([]core.SimilarityCandidate, 0, len(candidates))
	for _, doc := range candidates {
		if doc.CourseId != query.CourseId {
			// The repository scopes candidates already; a mismatch here
			// means a corrupt scope index, and the document must not
			// cross course boundaries either way.
			s.logger.Warn("candidate outside query scope",
				"id", doc.Id, "course", doc.CourseId, "scope", query.CourseId)
			continue
		}
		if doc.Status != core.DocumentStatusActive || excluded[doc.Id] {
			continue
		}
		if len(doc.Vector) == 0 {
			continue
		}
		sim, err := CosineSimilarity(query.Vector, doc.Vector)
		if err != nil {
			// Dimension drift between embedding models; skip rather
			// than fail the whole search.
			s.logger.Warn("skipping candidate", "id", doc.Id, "err", err)
			continue
		}
		scored = append(scored, core.SimilarityCandidate{Document: doc, Similarity: sim})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		// Equal similarity: prefer the most recent document.
		if !scored[i].Document.CreatedAt.Equal(scored[j].Document.CreatedAt) {
			return scored[i].Document.CreatedAt.After(scored[j].Document.CreatedAt)
		}
		return scored[i].Document.Id < scored[j].Document.Id
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	results := make([]*core.RelatedDocument, 0, len(scored))
	for _, cand := range scored {
		if cand.Similarity < floor {
			continue
		}
		results = append(results, &core.RelatedDocument{
			Id:         cand.Document.Id,
			Title:      cand.Document.Title,
			Excerpt:    truncateExcerpt(cand.Document),
			Similarity: cand.Similarity,
			CreatedAt:  cand.Document.CreatedAt,
		})
	}

	s.logger.Debug("similarity search complete",
		"course", query.CourseId,
		"candidates", len(candidates),
		"results", len(results))

	return results, nil
}

// Related finds documents similar to an already stored document, using its
// embedding as the query and excluding the document itself.
func (s *Search) Related(ctx context.Context, id core.ID, topK int) ([]*core.RelatedDocument, error) {
	doc, err := s.documents.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(doc.Vector) == 0 {
		return nil, fmt.Errorf("%w: document %d has no embedding", ErrEmptyVector, id)
	}

	return s.FindSimilar(ctx, Query{
		Vector:   doc.Vector,
		CourseId: doc.CourseId,
		TopK:     topK,
		Floor:    relatedFloor,
		Exclude:  []core.ID{id},
	})
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 when either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

func truncateExcerpt(doc *core.StoredDocument) string {
	excerpt := doc.Excerpt
	if excerpt == "" {
		excerpt = doc.Contents
	}
	if runes := []rune(excerpt); len(runes) > excerptLimit {
		excerpt = string(runes[:excerptLimit])
	}
	return excerpt
}
