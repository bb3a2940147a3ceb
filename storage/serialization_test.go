package storage

import (
	"testing"
	"time"

	"github.com/poiesic/inkwell/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("lecture 4 notes")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Empty(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		doc  *core.StoredDocument
	}{
		{
			name: "full document",
			doc: &core.StoredDocument{
				Id:        core.IDFromContent("calculus"),
				CourseId:  "course-math-101",
				Title:     "Derivatives",
				Excerpt:   "The derivative measures instantaneous rate of change.",
				Contents:  "# Derivatives\n\nThe derivative measures instantaneous rate of change.",
				Status:    core.DocumentStatusActive,
				Vector:    []float32{0.1, -0.2, 0.3},
				CreatedAt: now.Add(-24 * time.Hour),
				UpdatedAt: now,
			},
		},
		{
			name: "document without vector or scope",
			doc: &core.StoredDocument{
				Id:       7,
				Title:    "Loose note",
				Contents: "unscoped",
				Status:   core.DocumentStatusArchived,
			},
		},
		{
			name: "document with pipe characters and unicode",
			doc: &core.StoredDocument{
				Id:        99,
				CourseId:  "course-cs",
				Title:     "Tables | and 数学",
				Contents:  "| a | b |\n|---|---|\n| 1 | 2 |",
				Status:    core.DocumentStatusActive,
				CreatedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDocument(tt.doc)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)

			assert.Equal(t, tt.doc.Id, decoded.Id)
			assert.Equal(t, tt.doc.CourseId, decoded.CourseId)
			assert.Equal(t, tt.doc.Title, decoded.Title)
			assert.Equal(t, tt.doc.Excerpt, decoded.Excerpt)
			assert.Equal(t, tt.doc.Contents, decoded.Contents)
			assert.Equal(t, tt.doc.Status, decoded.Status)
			assert.Equal(t, tt.doc.Vector, decoded.Vector)
			assert.True(t, tt.doc.CreatedAt.Equal(decoded.CreatedAt),
				"created at mismatch: %v != %v", tt.doc.CreatedAt, decoded.CreatedAt)
			assert.True(t, tt.doc.UpdatedAt.Equal(decoded.UpdatedAt))
		})
	}
}

func TestUnmarshalDocument_Truncated(t *testing.T) {
	doc := &core.StoredDocument{
		Id:       1,
		Title:    "Title",
		Contents: "body",
		Status:   core.DocumentStatusActive,
		Vector:   []float32{0.5, 0.5},
	}
	data := MarshalDocument(doc)

	_, err := UnmarshalDocument(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
