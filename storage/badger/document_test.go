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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/inkwell/core"
	"github.com/poiesic/inkwell/storage"
)

func makeTestDocument(courseID, title string) *core.StoredDocument {
	return &core.StoredDocument{
		CourseId: courseID,
		Title:    title,
		Excerpt:  "excerpt for " + title,
		Contents: "contents for " + title,
		Status:   core.DocumentStatusActive,
	}
}

func TestPutDocuments_AssignsContentID(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	saved, err := repo.PutDocuments(ctx, makeTestDocument("math101", "Derivatives"))
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.NotZero(t, saved[0].Id)
	assert.False(t, saved[0].CreatedAt.IsZero())
	assert.False(t, saved[0].UpdatedAt.IsZero())
}

func TestPutDocuments_DeterministicID(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	first, err := repo.PutDocuments(ctx, makeTestDocument("math101", "Derivatives"))
	require.NoError(t, err)
	second, err := repo.PutDocuments(ctx, makeTestDocument("math101", "Derivatives"))
	require.NoError(t, err)

	assert.Equal(t, first[0].Id, second[0].Id, "same content should hash to the same ID")
}

func TestPutDocuments_RejectsInvalid(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	_, err := repo.PutDocuments(ctx, &core.StoredDocument{CourseId: "math101"})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}

func TestGetDocument_RoundTrip(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	doc := makeTestDocument("phys201", "Waves")
	doc.Vector = []float32{0.1, 0.2, 0.3}
	saved, err := repo.PutDocuments(ctx, doc)
	require.NoError(t, err)

	got, err := repo.GetDocument(ctx, saved[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "phys201", got.CourseId)
	assert.Equal(t, "Waves", got.Title)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got.Vector)
}

func TestGetDocument_NotFound(t *testing.T) {
	repo := NewMemoryRepository(t)

	_, err := repo.GetDocument(context.Background(), core.ID(9999))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetDocuments_SkipsMissing(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	saved, err := repo.PutDocuments(ctx, makeTestDocument("math101", "Limits"))
	require.NoError(t, err)

	docs, err := repo.GetDocuments(ctx, saved[0].Id, core.ID(12345))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, saved[0].Id, docs[0].Id)
}

func TestDeleteDocuments(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	saved, err := repo.PutDocuments(ctx, makeTestDocument("math101", "Integrals"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDocuments(ctx, saved[0].Id))

	_, err = repo.GetDocument(ctx, saved[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Scope index entry must be gone too.
	docs, err := repo.CandidatesInScope(ctx, "math101")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDeleteDocuments_NotFound(t *testing.T) {
	repo := NewMemoryRepository(t)

	err := repo.DeleteDocuments(context.Background(), core.ID(424242))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCandidatesInScope_Isolation(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	_, err := repo.PutDocuments(ctx,
		makeTestDocument("math101", "Derivatives"),
		makeTestDocument("math101", "Integrals"),
		makeTestDocument("phys201", "Waves"),
	)
	require.NoError(t, err)

	docs, err := repo.CandidatesInScope(ctx, "math101")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, doc := range docs {
		assert.Equal(t, "math101", doc.CourseId)
	}
}

func TestCandidatesInScope_EmptyCourse(t *testing.T) {
	repo := NewMemoryRepository(t)

	_, err := repo.CandidatesInScope(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestCandidatesInScope_NoPrefixBleed(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	// "math10" must not match documents scoped to "math101".
	_, err := repo.PutDocuments(ctx, makeTestDocument("math101", "Derivatives"))
	require.NoError(t, err)

	docs, err := repo.CandidatesInScope(ctx, "math10")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCandidatesInScope_DelimiterInCourseID(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	// A course id containing the key delimiter must stay its own scope.
	_, err := repo.PutDocuments(ctx,
		makeTestDocument("math:advanced", "Derivatives"),
		makeTestDocument("math", "Arithmetic"),
	)
	require.NoError(t, err)

	docs, err := repo.CandidatesInScope(ctx, "math")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "math", docs[0].CourseId)

	docs, err = repo.CandidatesInScope(ctx, "math:advanced")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "math:advanced", docs[0].CourseId)
}

func TestPutDocuments_ScopeMove(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	doc := makeTestDocument("math101", "Derivatives")
	saved, err := repo.PutDocuments(ctx, doc)
	require.NoError(t, err)

	moved := makeTestDocument("math102", "Derivatives")
	moved.Id = saved[0].Id
	_, err = repo.PutDocuments(ctx, moved)
	require.NoError(t, err)

	old, err := repo.CandidatesInScope(ctx, "math101")
	require.NoError(t, err)
	assert.Empty(t, old)

	current, err := repo.CandidatesInScope(ctx, "math102")
	require.NoError(t, err)
	assert.Len(t, current, 1)
}

func TestWithoutEmbeddings(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	embedded := makeTestDocument("math101", "Embedded")
	embedded.Vector = []float32{1, 0}
	archived := makeTestDocument("math101", "Archived")
	archived.Status = core.DocumentStatusArchived
	pending := makeTestDocument("math101", "Pending")

	_, err := repo.PutDocuments(ctx, embedded, archived, pending)
	require.NoError(t, err)

	docs, err := repo.WithoutEmbeddings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Pending", docs[0].Title)
}

func TestWithoutEmbeddings_Limit(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	_, err := repo.PutDocuments(ctx,
		makeTestDocument("math101", "One"),
		makeTestDocument("math101", "Two"),
		makeTestDocument("math101", "Three"),
	)
	require.NoError(t, err)

	docs, err := repo.WithoutEmbeddings(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestUpdateEmbedding(t *testing.T) {
	repo := NewMemoryRepository(t)
	ctx := context.Background()

	saved, err := repo.PutDocuments(ctx, makeTestDocument("math101", "Vectors"))
	require.NoError(t, err)

	before := saved[0].UpdatedAt
	time.Sleep(2 * time.Millisecond)

	require.NoError(t, repo.UpdateEmbedding(ctx, saved[0].Id, []float32{0.5, 0.5}))

	got, err := repo.GetDocument(ctx, saved[0].Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, got.Vector)
	assert.True(t, got.UpdatedAt.After(before))
}

func TestUpdateEmbedding_NotFound(t *testing.T) {
	repo := NewMemoryRepository(t)

	err := repo.UpdateEmbedding(context.Background(), core.ID(77), []float32{1})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
