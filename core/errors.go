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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a StoredDocument failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyContents indicates the Contents field is empty.
	ErrEmptyContents = errors.New("contents cannot be empty")

	// ErrInvalidStatus indicates an invalid DocumentStatus value.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrInvalidDocumentType indicates a value outside the DocumentType enumeration.
	ErrInvalidDocumentType = errors.New("invalid document type")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
