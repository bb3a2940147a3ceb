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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/inkwell/ai"
	"github.com/poiesic/inkwell/core"
	"github.com/poiesic/inkwell/retrieval"
)

// enrichmentStage retrieves related historical documents and enhances
// the note content with cross-references to them. It always runs, even
// when structuring failed; retrieval failure is never fatal.
type enrichmentStage struct {
	embedder  ai.Embedder
	completer ai.Completer
	search    *retrieval.Search
	logger    *slog.Logger
}

// enhancementResponse mirrors the JSON shape requested by enhancementPrompt.
type enhancementResponse struct {
	EnhancedContent  string             `json:"enhanced_content"`
	CrossReferences  []crossRefPayload  `json:"cross_references"`
	NewConcepts      []string           `json:"new_concepts"`
	ReviewedConcepts []string           `json:"reviewed_concepts"`
}

type crossRefPayload struct {
	Concept        string `json:"concept"`
	ReferenceTitle string `json:"reference_title"`
	Relationship   string `json:"relationship"`
	Position       string `json:"position"`
}

func (e *enrichmentStage) run(ctx context.Context, state *State) {
	start := time.Now()
	state.CurrentStage = StageEnrichment

	text := state.CorrectedText
	if text == "" {
		text = state.RawText
	}
	// Invariant: EnhancedContent is set before this stage returns, even
	// under total failure.
	state.EnhancedContent = text
	state.CrossReferences = []core.CrossReference{}

	if text == "" {
		msg := fmt.Sprintf("enrichment failed: %v", ErrMissingInput)
		state.recordError(msg)
		state.recordResult(&StageResult{
			Stage:   StageEnrichment,
			Err:     msg,
			Elapsed: time.Since(start),
		})
		return
	}

	if state.UseRetrieval && state.Input.CourseId != "" {
		e.retrieve(ctx, state, text)
	}

	e.enhance(ctx, state, text)

	state.recordResult(&StageResult{
		Stage:     StageEnrichment,
		Succeeded: true,
		Summary: map[string]any{
			"related_count":    len(state.Related),
			"cross_ref_count":  len(state.CrossReferences),
			"used_retrieval":   state.UseRetrieval && len(state.Related) > 0,
		},
		Elapsed: time.Since(start),
	})
}

// retrieve embeds the text and queries the similarity search. Any
// failure here degrades to an empty retrieval context.
func (e *enrichmentStage) retrieve(ctx context.Context, state *State, text string) {
	if e.search == nil {
		e.logger.Warn("retrieval requested but no search configured", "run", state.RunId)
		return
	}

	vector, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		e.logger.Warn("embedding failed, continuing without retrieval",
			"run", state.RunId, "err", err)
		return
	}

	related, err := e.search.FindSimilar(ctx, retrieval.Query{
		Vector:   vector,
		CourseId: state.Input.CourseId,
	})
	if err != nil {
		e.logger.Warn("similarity search failed, continuing without retrieval",
			"run", state.RunId, "err", err)
		return
	}

	state.Related = related
	state.RetrievalContext = formatRetrievalContext(related)

	e.logger.Info("retrieval complete",
		"run", state.RunId,
		"course", state.Input.CourseId,
		"related", len(related))
}

// enhance rewrites the note with cross-references when retrieval
// context or concepts are available. Otherwise the corrected text is
// kept verbatim.
func (e *enrichmentStage) enhance(ctx context.Context, state *State, text string) {
	if state.RetrievalContext == "" && len(state.Concepts) == 0 {
		e.logger.Info("no context available, keeping original text", "run", state.RunId)
		return
	}

	var prompt strings.Builder
	prompt.WriteString("New note transcript:\n```\n")
	prompt.WriteString(text)
	prompt.WriteString("\n```\n\nExtracted key concepts:\n")
	prompt.WriteString(formatConceptSummary(state.Concepts))
	if state.RetrievalContext != "" {
		prompt.WriteString("\n\nRelated historical notes:\n")
		prompt.WriteString(state.RetrievalContext)
	}
	prompt.WriteString("\n\nEnhance the new note based on the material above. Output JSON.")

	response, err := e.completer.Complete(ctx, enhancementPrompt, prompt.String())
	if err != nil {
		e.logger.Warn("enhancement call failed, keeping original text",
			"run", state.RunId, "err", err)
		state.recordError(fmt.Sprintf("content enhancement failed: %v", err))
		return
	}

	var parsed enhancementResponse
	if err := decodeResponse(response, &parsed); err != nil {
		e.logger.Warn("unparseable enhancement response, keeping original text",
			"run", state.RunId, "err", err)
		return
	}

	if strings.TrimSpace(parsed.EnhancedContent) != "" {
		state.EnhancedContent = parsed.EnhancedContent
	}
	refs := make([]core.CrossReference, 0, len(parsed.CrossReferences))
	for _, ref := range parsed.CrossReferences {
		refs = append(refs, core.CrossReference{
			Concept:        ref.Concept,
			ReferenceTitle: ref.ReferenceTitle,
			Relationship:   ref.Relationship,
			Position:       ref.Position,
		})
	}
	state.CrossReferences = refs
}

// formatRetrievalContext renders related documents into the context
// string fed to the enhancement prompt: title, similarity percentage,
// date, and excerpt, with blocks separated by horizontal rules.
func formatRetrievalContext(related []*core.RelatedDocument) string {
	if len(related) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(related))
	for i, doc := range related {
		date := "unknown"
		if !doc.CreatedAt.IsZero() {
			date = doc.CreatedAt.Format("2006-01-02")
		}
		blocks = append(blocks, fmt.Sprintf(
			"### Historical note %d: %s\n*Similarity: %d%% | Date: %s*\n\n%s\n\n---",
			i+1, doc.Title, int(doc.Similarity*100), date, doc.Excerpt))
	}
	return strings.Join(blocks, "\n\n")
}

// formatConceptSummary renders up to ten concepts as a bullet list,
// with definitions when present.
func formatConceptSummary(concepts []core.Concept) string {
	if len(concepts) == 0 {
		return "No key concepts extracted."
	}

	limit := len(concepts)
	if limit > 10 {
		limit = 10
	}
	lines := make([]string, 0, limit)
	for _, concept := range concepts[:limit] {
		if concept.Definition != "" {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", concept.Term, concept.Definition))
		} else {
			lines = append(lines, fmt.Sprintf("- **%s**", concept.Term))
		}
	}
	return strings.Join(lines, "\n")
}
