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


package mock

import "github.com/poiesic/inkwell/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock recognizer, embedder, and completer instances.
type MockProvider struct {
	recognizer *MockRecognizer
	embedder   *MockEmbedder
	completer  *MockCompleter
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockRecognizer()/GetMockEmbedder()/GetMockCompleter() to access
// concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		recognizer: NewMockRecognizer(),
		embedder:   NewMockEmbedder(),
		completer:  NewMockCompleter(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(recognizer *MockRecognizer, embedder *MockEmbedder, completer *MockCompleter) ai.Provider {
	return &MockProvider{
		recognizer: recognizer,
		embedder:   embedder,
		completer:  completer,
	}
}

// Recognizer returns the mock recognizer.
func (p *MockProvider) Recognizer() ai.Recognizer {
	return p.recognizer
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Completer returns the mock completer.
func (p *MockProvider) Completer() ai.Completer {
	return p.completer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockRecognizer returns the underlying mock recognizer for test assertions.
func (p *MockProvider) GetMockRecognizer() *MockRecognizer {
	return p.recognizer
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockCompleter returns the underlying mock completer for test assertions.
func (p *MockProvider) GetMockCompleter() *MockCompleter {
	return p.completer
}
