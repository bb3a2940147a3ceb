package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/inkwell/ai"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete fails with ai.ErrCompletion, which drives callers
	// into their rule-based fallback paths.
	CompleteFunc func(ctx context.Context, system, user string) (string, error)

	callCount int
	calls     []CompletionCall
}

// CompletionCall records the arguments of one Complete invocation.
type CompletionCall struct {
	System string
	User   string
}

// NewMockCompleter creates a mock completer.
// Returns the concrete type to allow test assertions.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete returns injected behavior, or a completion error by default.
func (m *MockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.callCount++
	m.calls = append(m.calls, CompletionCall{System: system, User: user})

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, user)
	}

	return "", fmt.Errorf("%w: no mock behavior configured", ai.ErrCompletion)
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return m.callCount
}

// Calls returns the recorded invocations in order.
func (m *MockCompleter) Calls() []CompletionCall {
	return m.calls
}

// Reset clears recorded calls and injected behavior.
func (m *MockCompleter) Reset() {
	m.callCount = 0
	m.calls = nil
	m.CompleteFunc = nil
}
