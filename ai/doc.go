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


// Package ai provides abstractions for the AI services used by the note
// processing pipeline.
//
// The pipeline depends on three external capabilities, each represented by
// one interface:
//
//   - Recognizer: extracts text and a confidence score from note images
//   - Embedder: generates vector embeddings for similarity search
//   - Completer: single-shot text generation from system + user content
//
// Provider aggregates all three for convenient initialization.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types to enforce
// abstraction; mock constructors return concrete types so tests can inject
// behavior and assert call counts.
package ai
