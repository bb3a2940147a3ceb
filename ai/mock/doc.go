// Package mock provides test double implementations of the AI service interfaces.
//
// This package contains mock implementations of ai.Recognizer, ai.Embedder,
// ai.Completer, and ai.Provider for use in unit tests. The mocks allow tests
// to run without external AI services and enable controlled, deterministic
// behavior.
//
// # Default Behavior
//
//   - MockRecognizer: returns a fixed transcript with confidence 0.9
//   - MockEmbedder: returns deterministic vectors based on text hash
//   - MockCompleter: fails with ai.ErrCompletion, exercising fallback paths
//
// Inject custom behavior through the function fields:
//
//	completer := mock.NewMockCompleter()
//	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
//	    return `{"corrected_text": "fixed"}`, nil
//	}
package mock
