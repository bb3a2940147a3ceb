package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateDocument(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		doc     *StoredDocument
		wantErr error
	}{
		{
			name: "valid document",
			doc: &StoredDocument{
				Id:        1,
				Title:     "Derivatives",
				Contents:  "# Derivatives\n\nRate of change.",
				Status:    DocumentStatusActive,
				CreatedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name: "valid document without vector",
			doc: &StoredDocument{
				Id:        1,
				Title:     "Integrals",
				Contents:  "area under a curve",
				Status:    DocumentStatusActive,
				CreatedAt: validTime,
				Vector:    nil,
			},
			wantErr: nil,
		},
		{
			name: "valid archived document without scope",
			doc: &StoredDocument{
				Title:    "Old notes",
				Contents: "superseded",
				Status:   DocumentStatusArchived,
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name: "empty title",
			doc: &StoredDocument{
				Contents: "body",
				Status:   DocumentStatusActive,
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "empty contents",
			doc: &StoredDocument{
				Title:  "Title only",
				Status: DocumentStatusActive,
			},
			wantErr: ErrEmptyContents,
		},
		{
			name: "invalid status",
			doc: &StoredDocument{
				Title:    "Title",
				Contents: "body",
				Status:   DocumentStatus(99),
			},
			wantErr: ErrInvalidStatus,
		},
		{
			name: "future timestamp",
			doc: &StoredDocument{
				Title:     "Title",
				Contents:  "body",
				Status:    DocumentStatusActive,
				CreatedAt: futureTime,
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateDocumentType(t *testing.T) {
	for _, dt := range DocumentTypes {
		if err := ValidateDocumentType(dt); err != nil {
			t.Errorf("valid type %q rejected: %v", dt, err)
		}
	}
	if err := ValidateDocumentType("essay"); !errors.Is(err, ErrInvalidDocumentType) {
		t.Errorf("expected ErrInvalidDocumentType, got %v", err)
	}
}
