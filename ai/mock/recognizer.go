package mock

import (
	"context"

	"github.com/poiesic/inkwell/ai"
)

// MockRecognizer is a test double for ai.Recognizer.
// It allows custom behavior injection via function fields.
type MockRecognizer struct {
	// RecognizeTextFunc is called by RecognizeText if set.
	// If nil, uses default fixed-transcript behavior.
	RecognizeTextFunc func(ctx context.Context, image []byte) (ai.Recognition, error)

	callCount int
}

// NewMockRecognizer creates a mock recognizer with default behavior.
// Returns the concrete type to allow test assertions.
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{}
}

// RecognizeText returns injected behavior, or a fixed transcript by default.
func (m *MockRecognizer) RecognizeText(ctx context.Context, image []byte) (ai.Recognition, error) {
	m.callCount++

	if m.RecognizeTextFunc != nil {
		return m.RecognizeTextFunc(ctx, image)
	}

	return ai.Recognition{Text: "mock transcript", Confidence: 0.9}, nil
}

// CallCount returns the number of times RecognizeText was called.
func (m *MockRecognizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockRecognizer) Reset() {
	m.callCount = 0
	m.RecognizeTextFunc = nil
}
