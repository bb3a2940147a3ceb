package ai

import "errors"

var (
	// ErrRecognition indicates the OCR call failed.
	ErrRecognition = errors.New("text recognition failed")

	// ErrEmbedding indicates an embedding call failed.
	ErrEmbedding = errors.New("embedding generation failed")

	// ErrCompletion indicates a completion call failed.
	ErrCompletion = errors.New("completion failed")
)
