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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/inkwell/core"
)

func TestAnalyzeStructure_MarkdownHeadings(t *testing.T) {
	analysis := analyzeStructure("# Calculus\n## Derivatives\nThe derivative measures change.")

	require.Len(t, analysis.headings, 2)
	assert.Equal(t, "Calculus", analysis.headings[0].Text)
	assert.Equal(t, 1, analysis.headings[0].Level)
	assert.Equal(t, "Derivatives", analysis.headings[1].Text)
	assert.Equal(t, 2, analysis.headings[1].Level)

	require.Len(t, analysis.blocks, 3)
	assert.Equal(t, core.BlockKindHeading, analysis.blocks[0].Kind)
	assert.Equal(t, core.BlockKindParagraph, analysis.blocks[2].Kind)
}

func TestAnalyzeStructure_Lists(t *testing.T) {
	analysis := analyzeStructure("- first item\n• second item\n1. third item")

	require.Len(t, analysis.blocks, 3)
	for _, block := range analysis.blocks {
		assert.Equal(t, core.BlockKindList, block.Kind)
		assert.Equal(t, 1, block.Level)
	}
}

func TestAnalyzeStructure_ShortLineBecomesHeading(t *testing.T) {
	analysis := analyzeStructure("Chapter overview\nThis paragraph goes on to end with punctuation, like a sentence does.")

	require.Len(t, analysis.blocks, 2)
	assert.Equal(t, core.BlockKindHeading, analysis.blocks[0].Kind)
	assert.Equal(t, 2, analysis.blocks[0].Level)
	assert.Equal(t, core.BlockKindParagraph, analysis.blocks[1].Kind)
}

func TestAnalyzeStructure_DefaultsToNotes(t *testing.T) {
	analysis := analyzeStructure("some text here.")
	assert.Equal(t, core.DocumentTypeNotes, analysis.documentType)
}

func TestExtractConcepts_Patterns(t *testing.T) {
	text := "The **chain rule** applies. See 《Calculus》 and “limits” for background."
	concepts := extractConcepts(text)

	terms := make([]string, 0, len(concepts))
	for _, concept := range concepts {
		terms = append(terms, concept.Term)
		assert.Equal(t, 0.7, concept.Importance)
		assert.Contains(t, concept.Context, concept.Term)
	}
	assert.Contains(t, terms, "chain rule")
	assert.Contains(t, terms, "Calculus")
	assert.Contains(t, terms, "limits")
}

func TestExtractConcepts_TermLengthBounds(t *testing.T) {
	concepts := extractConcepts("**a** is too short and **" +
		"this emphasized term is far too long to qualify as a concept**")
	assert.Empty(t, concepts)
}

func TestAnalyzeStructure_Idempotent(t *testing.T) {
	text := "# Physics\n- Newton's laws\nThe **inertia** principle holds.\nShort heading"
	first := analyzeStructure(text)
	second := analyzeStructure(text)

	assert.Equal(t, first.blocks, second.blocks)
	assert.Equal(t, first.headings, second.headings)
	assert.Equal(t, first.concepts, second.concepts)
	assert.Equal(t, first.documentType, second.documentType)
}

func TestAnalyzeStructure_EmptyCollectionsNeverNil(t *testing.T) {
	analysis := analyzeStructure("")
	assert.NotNil(t, analysis.blocks)
	assert.NotNil(t, analysis.headings)
	assert.NotNil(t, analysis.concepts)
}
