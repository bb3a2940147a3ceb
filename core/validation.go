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

import (
	"fmt"
	"time"
)

// ValidateDocument validates a StoredDocument according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - Contents must not be empty
//   - Status must be a known DocumentStatus
//   - CreatedAt must not be in the future
//
// NOT validated:
//   - Vector (can be empty until the indexer runs)
//   - CourseId (empty means the document is unscoped)
//   - ID (0 is overwritten by content hashing at save time)
func ValidateDocument(doc *StoredDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if doc.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContents)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !doc.CreatedAt.IsZero() && !IsValidTimestamp(doc.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateStatus validates that a DocumentStatus has a valid value.
func ValidateStatus(status DocumentStatus) error {
	if status != DocumentStatusActive && status != DocumentStatusArchived {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
	return nil
}

// ValidateDocumentType validates a document type against the fixed enumeration.
func ValidateDocumentType(dt DocumentType) error {
	for _, known := range DocumentTypes {
		if dt == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidDocumentType, dt)
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
