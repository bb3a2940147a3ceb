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

// extractionStage recognizes text in the input image and runs a model
// correction pass over the raw transcript.
type extractionStage struct {
	recognizer ai.Recognizer
	completer  ai.Completer
	logger     *slog.Logger
}

// correctionResponse mirrors the JSON shape requested by correctionPrompt.
type correctionResponse struct {
	CorrectedText   string        `json:"corrected_text"`
	SpecialContents []spanPayload `json:"special_contents"`
}

type spanPayload struct {
	Type          string  `json:"type"`
	RawText       string  `json:"raw_text"`
	ProcessedText string  `json:"processed_text"`
	Position      int     `json:"position"`
	Confidence    float64 `json:"confidence"`
}

func (p spanPayload) toSpan() core.SpecialSpan {
	return core.SpecialSpan{
		Kind:       core.SpanKind(p.Type),
		RawText:    p.RawText,
		Rendered:   p.ProcessedText,
		Offset:     p.Position,
		Confidence: p.Confidence,
	}
}

func (e *extractionStage) run(ctx context.Context, state *State) {
	start := time.Now()
	state.CurrentStage = StageExtraction

	fail := func(err error) {
		msg := fmt.Sprintf("extraction failed: %v", err)
		e.logger.Error("extraction failed", "run", state.RunId, "err", err)
		state.recordError(msg)
		state.Status = StatusFailed
		state.recordResult(&StageResult{
			Stage:   StageExtraction,
			Err:     msg,
			Elapsed: time.Since(start),
		})
	}

	if len(state.Input.Image) == 0 {
		fail(fmt.Errorf("%w: no image data", ErrMissingInput))
		return
	}

	recognition, err := e.recognizer.RecognizeText(ctx, state.Input.Image)
	if err != nil {
		fail(err)
		return
	}
	if strings.TrimSpace(recognition.Text) == "" {
		fail(ErrEmptyExtraction)
		return
	}

	state.RawText = recognition.Text
	state.Confidence = recognition.Confidence

	e.logger.Info("text recognized",
		"run", state.RunId,
		"chars", len(recognition.Text),
		"confidence", recognition.Confidence)

	corrected, spans := e.correct(ctx, state)
	state.CorrectedText = corrected
	state.SpecialSpans = spans

	state.recordResult(&StageResult{
		Stage:     StageExtraction,
		Succeeded: true,
		Summary: map[string]any{
			"text_length": len(corrected),
			"confidence":  recognition.Confidence,
			"span_count":  len(spans),
		},
		Elapsed: time.Since(start),
	})
}

// correct runs the model correction pass. Both a failed call and an
// unparseable response fall back to the raw transcript with rule-based
// span detection; only the call failure is recorded as a diagnostic.
func (e *extractionStage) correct(ctx context.Context, state *State) (string, []core.SpecialSpan) {
	raw := state.RawText

	response, err := e.completer.Complete(ctx, correctionPrompt,
		"Process the following recognized text:\n\n```\n"+raw+"\n```")
	if err != nil {
		e.logger.Warn("correction call failed, using raw transcript",
			"run", state.RunId, "err", err)
		state.recordError(fmt.Sprintf("extraction correction failed: %v", err))
		return raw, DetectSpans(raw)
	}

	var parsed correctionResponse
	if err := decodeResponse(response, &parsed); err != nil {
		e.logger.Warn("unparseable correction response, using raw transcript",
			"run", state.RunId, "err", err)
		return raw, DetectSpans(raw)
	}

	corrected := parsed.CorrectedText
	if strings.TrimSpace(corrected) == "" {
		corrected = raw
	}

	spans := make([]core.SpecialSpan, 0, len(parsed.SpecialContents))
	for _, payload := range parsed.SpecialContents {
		spans = append(spans, payload.toSpan())
	}
	return corrected, spans
}
