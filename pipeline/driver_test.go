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


package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/inkwell/ai"
	"github.com/poiesic/inkwell/ai/mock"
	"github.com/poiesic/inkwell/core"
	"github.com/poiesic/inkwell/retrieval"
	badgerstore "github.com/poiesic/inkwell/storage/badger"
)

func newTestProvider(t *testing.T, text string, confidence float64) (*mock.MockProvider, *Driver) {
	t.Helper()

	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockRecognizer().RecognizeTextFunc = func(ctx context.Context, image []byte) (ai.Recognition, error) {
		return ai.Recognition{Text: text, Confidence: confidence}, nil
	}

	driver, err := NewDriver(provider)
	require.NoError(t, err)
	return provider, driver
}

func TestNewDriver_RequiresProvider(t *testing.T) {
	_, err := NewDriver(nil)
	assert.ErrorIs(t, err, ErrProviderRequired)
}

func TestRun_MissingImageFailsRun(t *testing.T) {
	_, driver := newTestProvider(t, "text", 0.9)

	state := driver.Run(context.Background(), Input{})

	assert.Equal(t, StatusFailed, state.Status)
	require.NotNil(t, state.Result(StageExtraction))
	assert.False(t, state.Result(StageExtraction).Succeeded)
	assert.NotEmpty(t, state.Errors)
}

func TestRun_RecognizerFailureTerminatesRun(t *testing.T) {
	provider, driver := newTestProvider(t, "", 0)
	provider.GetMockRecognizer().RecognizeTextFunc = func(ctx context.Context, image []byte) (ai.Recognition, error) {
		return ai.Recognition{}, errors.New("vision model unavailable")
	}

	state := driver.Run(context.Background(), Input{Image: []byte("img")})

	assert.Equal(t, StatusFailed, state.Status)
	assert.Nil(t, state.Result(StageStructuring))
	assert.Nil(t, state.Result(StageEnrichment))
	assert.Nil(t, state.Result(StageAssessment))
	assert.Nil(t, state.Result(StageAssembly))
}

func TestRun_EmptyRecognitionTerminatesRun(t *testing.T) {
	_, driver := newTestProvider(t, "   \n ", 0.4)

	state := driver.Run(context.Background(), Input{Image: []byte("img")})

	assert.Equal(t, StatusFailed, state.Status)
	assert.Nil(t, state.Result(StageStructuring))
}

// Plain arithmetic note, no scope, no assessment. The run completes on
// fallbacks alone and the final document carries the transcript.
func TestRun_SimpleNoteCompletes(t *testing.T) {
	_, driver := newTestProvider(t, "2+2=4", 0.95)

	state := driver.Run(context.Background(), Input{Image: []byte("img")})

	assert.Equal(t, StatusCompleted, state.Status)
	assert.Equal(t, "2+2=4", state.CorrectedText)
	assert.Equal(t, 0.95, state.Confidence)
	assert.Empty(t, state.Related)
	assert.Empty(t, state.ReviewItems)
	assert.Empty(t, state.Flashcards)
	assert.Empty(t, state.KeyPoints)
	assert.Contains(t, state.FinalDocument, "2+2=4")
	require.NotNil(t, state.Metadata)
	assert.False(t, state.Metadata.UsedRetrieval)
	assert.False(t, state.Metadata.GeneratedAssessment)
}

func TestRun_AssessmentDisabledIsSkippedNotFailed(t *testing.T) {
	_, driver := newTestProvider(t, "notes about golf", 0.9)

	state := driver.Run(context.Background(), Input{Image: []byte("img")})

	result := state.Result(StageAssessment)
	require.NotNil(t, result)
	assert.True(t, result.Succeeded)
	assert.True(t, result.Skipped)
	assert.Empty(t, state.ReviewItems)
	assert.Empty(t, state.Flashcards)
	assert.Empty(t, state.KeyPoints)
}

// Every completion call fails, so every stage takes its rule-based
// fallback, yet the run still completes. One diagnostic is recorded
// per failed call.
func TestRun_AllCompletionsFailStillCompletes(t *testing.T) {
	// Bold emphasis guarantees the fallback extracts a concept, which
	// in turn makes enrichment attempt its enhancement call.
	provider, driver := newTestProvider(t, "The **chain rule** composes derivatives.", 0.9)

	state := driver.Run(context.Background(), Input{
		Image:              []byte("img"),
		GenerateAssessment: true,
	})

	assert.Equal(t, StatusCompleted, state.Status)
	assert.Equal(t, "The **chain rule** composes derivatives.", state.EnhancedContent)
	assert.NotEmpty(t, state.Concepts)

	// Correction, structuring, enhancement, assessment, assembly.
	completer := provider.GetMockCompleter()
	assert.Equal(t, 5, completer.CallCount())
	assert.Len(t, state.Errors, 5)
}

func TestRun_ParsedCompletionResponses(t *testing.T) {
	provider, driver := newTestProvider(t, "raw transkript", 0.8)
	provider.GetMockCompleter().CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		switch system {
		case correctionPrompt:
			return `{"corrected_text": "raw transcript", "special_contents": [{"type": "formula", "raw_text": "E=mc^2", "processed_text": "$E=mc^2$", "position": 4, "confidence": 0.9}]}`, nil
		case structurePrompt:
			return "```json\n" + `{"document_type": "lecture", "text_blocks": [{"content": "raw transcript", "block_type": "paragraph", "level": 0}], "heading_hierarchy": [], "key_concepts": [{"term": "relativity", "definition": "physics of spacetime", "importance": 0.9}]}` + "\n```", nil
		case enhancementPrompt:
			return `{"enhanced_content": "enhanced transcript", "cross_references": []}`, nil
		case assessmentPrompt:
			return `{"qa_items": [{"question": "q1", "answer": "a1", "difficulty": "hard"}], "knowledge_cards": [{"front": "f", "back": "b", "tags": ["t"]}], "key_points": ["p1"]}`, nil
		case assemblyPrompt:
			return "# Final Note\n\nenhanced transcript", nil
		}
		return "", errors.New("unexpected prompt")
	}

	state := driver.Run(context.Background(), Input{
		Image:              []byte("img"),
		GenerateAssessment: true,
	})

	assert.Equal(t, StatusCompleted, state.Status)
	assert.Equal(t, "raw transcript", state.CorrectedText)
	require.Len(t, state.SpecialSpans, 1)
	assert.Equal(t, core.SpanKindFormula, state.SpecialSpans[0].Kind)
	assert.Equal(t, core.DocumentTypeLecture, state.DocumentType)
	require.Len(t, state.Concepts, 1)
	assert.Equal(t, "relativity", state.Concepts[0].Term)
	assert.Equal(t, "enhanced transcript", state.EnhancedContent)
	require.Len(t, state.ReviewItems, 1)
	assert.Equal(t, core.DifficultyHard, state.ReviewItems[0].Difficulty)
	require.Len(t, state.Flashcards, 1)
	assert.Equal(t, []string{"p1"}, state.KeyPoints)
	assert.True(t, strings.HasPrefix(state.FinalDocument, "# Final Note"))
	assert.Contains(t, state.FinalDocument, "## Review Questions")
	assert.Contains(t, state.FinalDocument, "## Flashcards")
	assert.Empty(t, state.Errors)
}

// Five in-scope documents with similarities 0.9, 0.6, 0.5, 0.3 and 0.1
// against the query. Retrieval keeps the raw top three, then the 0.4
// floor removes nothing further.
func TestRun_RetrievalSelectsTopNeighbors(t *testing.T) {
	repo := badgerstore.NewMemoryRepository(t)
	search, err := retrieval.NewSearch(repo)
	require.NoError(t, err)

	sims := []float64{0.9, 0.6, 0.5, 0.3, 0.1}
	for i, sim := range sims {
		// Unit vector whose cosine against the query (1, 0) equals sim.
		doc := &core.StoredDocument{
			CourseId: "math101",
			Title:    "note " + strings.Repeat("i", i+1),
			Contents: "historical contents",
			Status:   core.DocumentStatusActive,
			Vector:   []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))},
		}
		_, err := repo.PutDocuments(context.Background(), doc)
		require.NoError(t, err)
	}

	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockRecognizer().RecognizeTextFunc = func(ctx context.Context, image []byte) (ai.Recognition, error) {
		return ai.Recognition{Text: "new note about derivatives", Confidence: 0.9}, nil
	}
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	driver, err := NewDriver(provider, WithSearch(search))
	require.NoError(t, err)

	state := driver.Run(context.Background(), Input{
		Image:    []byte("img"),
		CourseId: "math101",
	})

	assert.Equal(t, StatusCompleted, state.Status)
	require.Len(t, state.Related, 3)
	for _, doc := range state.Related {
		assert.GreaterOrEqual(t, doc.Similarity, 0.4)
	}
	assert.InDelta(t, 0.9, state.Related[0].Similarity, 1e-6)
	assert.InDelta(t, 0.6, state.Related[1].Similarity, 1e-6)
	assert.InDelta(t, 0.5, state.Related[2].Similarity, 1e-6)
	assert.NotEmpty(t, state.RetrievalContext)
	require.NotNil(t, state.Metadata)
	assert.True(t, state.Metadata.UsedRetrieval)
}

// Retrieval failure never fails the run.
func TestRun_EmbeddingFailureDegradesToNoRetrieval(t *testing.T) {
	repo := badgerstore.NewMemoryRepository(t)
	search, err := retrieval.NewSearch(repo)
	require.NoError(t, err)

	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockRecognizer().RecognizeTextFunc = func(ctx context.Context, image []byte) (ai.Recognition, error) {
		return ai.Recognition{Text: "some note", Confidence: 0.9}, nil
	}
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	driver, err := NewDriver(provider, WithSearch(search))
	require.NoError(t, err)

	state := driver.Run(context.Background(), Input{
		Image:    []byte("img"),
		CourseId: "math101",
	})

	assert.Equal(t, StatusCompleted, state.Status)
	assert.Empty(t, state.Related)
	assert.Empty(t, state.RetrievalContext)
	assert.Equal(t, "some note", state.EnhancedContent)
}

func TestRun_EnhancedContentAlwaysSet(t *testing.T) {
	_, driver := newTestProvider(t, "bare text", 0.5)

	state := driver.Run(context.Background(), Input{Image: []byte("img")})

	assert.NotEmpty(t, state.EnhancedContent)
}

