package ai

import "context"

// Recognition is the result of optical character recognition on an image.
type Recognition struct {
	// Text is the raw recognized text, before any correction pass.
	Text string

	// Confidence is the recognizer's overall confidence in the transcript,
	// in [0,1].
	Confidence float64
}

// Recognizer extracts text from note images.
// Implementations must be thread-safe for concurrent use.
type Recognizer interface {
	// RecognizeText extracts text from raw image bytes.
	// Returns an error if the image cannot be processed; an empty transcript
	// is reported as success with an empty Text field and left to the
	// caller to reject.
	RecognizeText(ctx context.Context, image []byte) (Recognition, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer generates text from a system instruction and user content.
// The pipeline treats the output as a black box: either well-formed
// structured text or arbitrary prose that must be defensively parsed.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends a single-shot request and returns the generated text.
	// No tool use, no streaming. Returns an error if the call fails.
	Complete(ctx context.Context, system, user string) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Recognizer, Embedder, and
// Completer instances, ensuring they share configuration appropriately.
type Provider interface {
	// Recognizer returns the OCR service.
	// The returned Recognizer is safe for concurrent use.
	Recognizer() Recognizer

	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Completer returns the text generation service.
	// The returned Completer is safe for concurrent use.
	Completer() Completer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
