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
	"time"

	"github.com/poiesic/inkwell/ai"
	"github.com/poiesic/inkwell/core"
)

// assessmentContentLimit caps how much note content is sent to the
// model when generating review material.
const assessmentContentLimit = 3000

// assessmentStage generates review questions, flashcards, and key
// points. Failure degrades to empty lists and never aborts the run.
type assessmentStage struct {
	completer ai.Completer
	logger    *slog.Logger
}

// assessmentResponse mirrors the JSON shape requested by assessmentPrompt.
type assessmentResponse struct {
	QAItems        []reviewItemPayload `json:"qa_items"`
	KnowledgeCards []flashcardPayload  `json:"knowledge_cards"`
	KeyPoints      []string            `json:"key_points"`
}

type reviewItemPayload struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
	Concept    string `json:"concept"`
}

type flashcardPayload struct {
	Front   string   `json:"front"`
	Back    string   `json:"back"`
	Tags    []string `json:"tags"`
	Concept string   `json:"concept"`
}

func (a *assessmentStage) run(ctx context.Context, state *State) {
	start := time.Now()
	state.CurrentStage = StageAssessment

	if !state.Input.GenerateAssessment {
		a.logger.Info("assessment disabled, skipping", "run", state.RunId)
		state.recordResult(&StageResult{
			Stage:     StageAssessment,
			Succeeded: true,
			Skipped:   true,
			Summary:   map[string]any{"skipped": true, "reason": "assessment disabled"},
		})
		return
	}

	content := state.bestContent()
	if content == "" {
		msg := fmt.Sprintf("assessment failed: %v", ErrMissingInput)
		state.recordError(msg)
		state.recordResult(&StageResult{
			Stage:   StageAssessment,
			Err:     msg,
			Elapsed: time.Since(start),
		})
		return
	}
	if runes := []rune(content); len(runes) > assessmentContentLimit {
		content = string(runes[:assessmentContentLimit])
	}

	documentType := state.DocumentType
	if documentType == "" {
		documentType = core.DocumentTypeNotes
	}

	prompt := fmt.Sprintf(
		"Document type: %s\n\nNote content:\n```\n%s\n```\n\nIdentified key concepts:\n%s\n\nGenerate review material for the note above. Output JSON.",
		documentType, content, formatConceptSummary(state.Concepts))

	response, err := a.completer.Complete(ctx, assessmentPrompt, prompt)
	if err != nil {
		msg := fmt.Sprintf("assessment generation failed: %v", err)
		a.logger.Warn("assessment call failed, returning no review material",
			"run", state.RunId, "err", err)
		state.recordError(msg)
		state.recordResult(&StageResult{
			Stage:   StageAssessment,
			Err:     msg,
			Elapsed: time.Since(start),
		})
		return
	}

	var parsed assessmentResponse
	if err := decodeResponse(response, &parsed); err != nil {
		// Unparseable output degrades to empty lists.
		a.logger.Warn("unparseable assessment response",
			"run", state.RunId, "err", err)
		parsed = assessmentResponse{}
	}

	state.ReviewItems = make([]core.ReviewItem, 0, len(parsed.QAItems))
	for _, item := range parsed.QAItems {
		difficulty := core.Difficulty(item.Difficulty)
		switch difficulty {
		case core.DifficultyEasy, core.DifficultyMedium, core.DifficultyHard:
		default:
			difficulty = core.DifficultyMedium
		}
		state.ReviewItems = append(state.ReviewItems, core.ReviewItem{
			Question:   item.Question,
			Answer:     item.Answer,
			Difficulty: difficulty,
			Concept:    item.Concept,
		})
	}

	state.Flashcards = make([]core.Flashcard, 0, len(parsed.KnowledgeCards))
	for _, card := range parsed.KnowledgeCards {
		state.Flashcards = append(state.Flashcards, core.Flashcard{
			Front:   card.Front,
			Back:    card.Back,
			Tags:    card.Tags,
			Concept: card.Concept,
		})
	}

	state.KeyPoints = parsed.KeyPoints
	if state.KeyPoints == nil {
		state.KeyPoints = []string{}
	}

	a.logger.Info("assessment complete",
		"run", state.RunId,
		"questions", len(state.ReviewItems),
		"cards", len(state.Flashcards),
		"key_points", len(state.KeyPoints))

	state.recordResult(&StageResult{
		Stage:     StageAssessment,
		Succeeded: true,
		Summary: map[string]any{
			"question_count":  len(state.ReviewItems),
			"card_count":      len(state.Flashcards),
			"key_point_count": len(state.KeyPoints),
		},
		Elapsed: time.Since(start),
	})
}
