package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "calculus lecture 3"},
		{name: "empty string", content: ""},
		{name: "long content", content: "A much longer assembled markdown document that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := IDFromContent(tt.content)
			second := IDFromContent(tt.content)
			if first != second {
				t.Errorf("IDFromContent(%q) not deterministic: %d != %d", tt.content, first, second)
			}
		})
	}
}

func TestIDFromContent_DifferentContent(t *testing.T) {
	a := IDFromContent("linear algebra")
	b := IDFromContent("organic chemistry")
	if a == b {
		t.Errorf("different content produced identical IDs: %d", a)
	}
}

func TestDocumentTypes_CoversEnumeration(t *testing.T) {
	if len(DocumentTypes) != 6 {
		t.Fatalf("expected 6 document types, got %d", len(DocumentTypes))
	}
	seen := make(map[DocumentType]bool)
	for _, dt := range DocumentTypes {
		if seen[dt] {
			t.Errorf("duplicate document type %q", dt)
		}
		seen[dt] = true
	}
}
