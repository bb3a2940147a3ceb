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
)

// flashcardTableLimit caps the rendered flashcard table.
const flashcardTableLimit = 10

// assemblyStage produces the final study document and the run
// metadata, and sets the terminal run status.
type assemblyStage struct {
	completer ai.Completer
	logger    *slog.Logger
}

func (a *assemblyStage) run(ctx context.Context, state *State) {
	start := time.Now()
	state.CurrentStage = StageAssembly

	body := a.integrate(ctx, state)

	parts := []string{body}
	if section := renderStudySections(state.KeyPoints, state.ReviewItems); section != "" {
		parts = append(parts, "\n---\n", section)
	}
	if table := renderFlashcardTable(state.Flashcards); table != "" {
		parts = append(parts, "\n---\n", table)
	}
	state.FinalDocument = strings.Join(parts, "\n")

	succeeded := strings.TrimSpace(state.FinalDocument) != ""
	result := &StageResult{
		Stage:     StageAssembly,
		Succeeded: succeeded,
		Summary: map[string]any{
			"document_length": len(state.FinalDocument),
		},
	}
	if succeeded {
		state.Status = StatusCompleted
	} else {
		// No content survived any stage. Extraction success guarantees
		// text, so this only happens on direct misuse.
		msg := "assembly failed: no content available"
		state.recordError(msg)
		state.Status = StatusFailed
		result.Err = msg
	}
	result.Elapsed = time.Since(start)
	state.recordResult(result)

	state.Metadata = buildMetadata(state)

	a.logger.Info("assembly complete",
		"run", state.RunId,
		"status", state.Status,
		"document_chars", len(state.FinalDocument),
		"errors", len(state.Errors))
}

// integrate asks the model for a cohesive document body. A failed call
// falls back to the best available content from earlier stages.
func (a *assemblyStage) integrate(ctx context.Context, state *State) string {
	var prompt strings.Builder
	prompt.WriteString("Combine the following into one complete Markdown note.\n\nEnhanced content:\n```\n")
	prompt.WriteString(state.bestContent())
	prompt.WriteString("\n```\n")

	if len(state.Concepts) > 0 {
		prompt.WriteString("\nKey concepts:\n")
		prompt.WriteString(formatConceptSummary(state.Concepts))
		prompt.WriteString("\n")
	}
	if len(state.CrossReferences) > 0 {
		prompt.WriteString("\nCross-references:\n")
		for _, ref := range state.CrossReferences {
			prompt.WriteString(fmt.Sprintf("- %s -> %s: %s\n",
				ref.Concept, ref.ReferenceTitle, ref.Relationship))
		}
	}
	if len(state.Related) > 0 {
		prompt.WriteString("\nRelated historical notes:\n")
		for _, doc := range state.Related {
			prompt.WriteString(fmt.Sprintf("- %s (similarity: %d%%)\n",
				doc.Title, int(doc.Similarity*100)))
		}
	}
	prompt.WriteString("\nProduce a professional, clearly structured Markdown note.")

	response, err := a.completer.Complete(ctx, assemblyPrompt, prompt.String())
	if err != nil {
		a.logger.Warn("integration call failed, using best available content",
			"run", state.RunId, "err", err)
		state.recordError(fmt.Sprintf("final integration failed: %v", err))
		return state.bestContent()
	}
	if strings.TrimSpace(response) == "" {
		return state.bestContent()
	}
	return response
}

// renderStudySections renders the key-point list and the review
// questions with collapsible answers. Empty when there is no
// assessment output.
func renderStudySections(keyPoints []string, items []core.ReviewItem) string {
	var sections []string

	if len(keyPoints) > 0 {
		lines := []string{"## Key Points", ""}
		for i, point := range keyPoints {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, point))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(items) > 0 {
		lines := []string{"## Review Questions", ""}
		for i, item := range items {
			lines = append(lines,
				fmt.Sprintf("### Q%d (%s)", i+1, item.Difficulty),
				fmt.Sprintf("**Question**: %s", item.Question),
				"",
				"<details>",
				"<summary>Show answer</summary>",
				"",
				item.Answer,
				"</details>",
				"")
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

// renderFlashcardTable renders flashcards as a two-column Markdown
// table, one row per card up to the cap, with pipe characters escaped.
func renderFlashcardTable(cards []core.Flashcard) string {
	if len(cards) == 0 {
		return ""
	}

	lines := []string{"## Flashcards", "", "| Front | Back |", "|-------|------|"}
	limit := len(cards)
	if limit > flashcardTableLimit {
		limit = flashcardTableLimit
	}
	for _, card := range cards[:limit] {
		front := strings.ReplaceAll(card.Front, "|", `\|`)
		back := strings.ReplaceAll(card.Back, "|", `\|`)
		lines = append(lines, fmt.Sprintf("| %s | %s |", front, back))
	}
	return strings.Join(lines, "\n")
}

// buildMetadata summarizes the finished run.
func buildMetadata(state *State) *RunMetadata {
	var total time.Duration
	elapsed := make(map[StageID]time.Duration, len(state.Timings))
	for stage, duration := range state.Timings {
		elapsed[stage] = duration
		total += duration
	}

	return &RunMetadata{
		TotalElapsed:        total,
		StageElapsed:        elapsed,
		Confidence:          state.Confidence,
		DocumentType:        state.DocumentType,
		RelatedCount:        len(state.Related),
		ConceptCount:        len(state.Concepts),
		ReviewItemCount:     len(state.ReviewItems),
		FlashcardCount:      len(state.Flashcards),
		SpecialSpanCount:    len(state.SpecialSpans),
		Errors:              state.Errors,
		StagesRun:           state.StagesRun,
		UsedRetrieval:       len(state.Related) > 0,
		GeneratedAssessment: len(state.ReviewItems) > 0,
		CompletedAt:         time.Now().UTC(),
	}
}
