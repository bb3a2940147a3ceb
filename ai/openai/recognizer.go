package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/inkwell/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const recognitionPrompt = `Transcribe all text visible in the image exactly as written.
Preserve line breaks, markdown-like structure, formulas, and tables as faithfully as possible.

Output ONLY valid JSON with exactly these two fields:
{"text": "<full transcript>", "confidence": <0.0-1.0 estimate of transcription accuracy>}

Do not include any preamble or explanation outside the JSON object.`

// recognitionResponse is an internal type used for JSON unmarshaling.
type recognitionResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognizer implements ai.Recognizer using a vision-capable chat model.
type Recognizer struct {
	client llms.Model
	logger *slog.Logger
}

// newRecognizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRecognizer(config *ai.Config) (*Recognizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken("none"),
		openai.WithModel(config.VisionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Recognizer{
		client: client,
		logger: slog.Default().With("component", "openai-recognizer"),
	}, nil
}

// NewRecognizer creates a new text recognizer using the provided configuration.
//
// Returns ai.Recognizer interface to enforce abstraction.
func NewRecognizer(config *ai.Config) (ai.Recognizer, error) {
	return newRecognizer(config)
}

// RecognizeText extracts text from raw image bytes via a multimodal chat call.
func (r *Recognizer) RecognizeText(ctx context.Context, image []byte) (ai.Recognition, error) {
	mimeType := http.DetectContentType(image)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mimeType, image),
				llms.TextPart(recognitionPrompt),
			},
		},
	}

	response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		r.logger.Error("vision model call failed", "err", err)
		return ai.Recognition{}, fmt.Errorf("%w: %w", ai.ErrRecognition, err)
	}

	if len(response.Choices) < 1 {
		return ai.Recognition{}, fmt.Errorf("%w: empty response", ai.ErrRecognition)
	}

	raw := strings.TrimSpace(response.Choices[0].Content)

	// Strip markdown code fences if present
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed recognitionResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		// The model answered with a bare transcript. Usable, but we cannot
		// trust a confidence it never reported.
		r.logger.Warn("recognizer response was not JSON, using raw transcript", "err", err)
		return ai.Recognition{Text: raw, Confidence: 0.5}, nil
	}

	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}

	r.logger.Debug("recognized text", "length", len(parsed.Text), "confidence", parsed.Confidence)

	return ai.Recognition{Text: parsed.Text, Confidence: parsed.Confidence}, nil
}
