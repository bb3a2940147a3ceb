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

import "errors"

var (
	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrMissingInput is returned when a stage's required input is absent.
	ErrMissingInput = errors.New("required input missing")

	// ErrEmptyExtraction is returned when OCR yields no usable text.
	ErrEmptyExtraction = errors.New("no text extracted from image")

	// ErrParse is returned when a model response cannot be decoded as
	// the expected structure. Always recovered via a stage fallback.
	ErrParse = errors.New("unparseable model response")
)
