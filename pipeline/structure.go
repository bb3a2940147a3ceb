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
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/inkwell/ai"
	"github.com/poiesic/inkwell/core"
)

// structuringStage splits the corrected text into blocks, builds the
// heading tree, extracts key concepts, and classifies the document.
type structuringStage struct {
	completer ai.Completer
	logger    *slog.Logger
}

// structureResponse mirrors the JSON shape requested by structurePrompt.
type structureResponse struct {
	DocumentType string           `json:"document_type"`
	TextBlocks   []blockPayload   `json:"text_blocks"`
	Headings     []headingPayload `json:"heading_hierarchy"`
	KeyConcepts  []conceptPayload `json:"key_concepts"`
}

type blockPayload struct {
	Content   string            `json:"content"`
	BlockType string            `json:"block_type"`
	Level     int               `json:"level"`
	Metadata  map[string]string `json:"metadata"`
}

type headingPayload struct {
	Text     string           `json:"text"`
	Level    int              `json:"level"`
	Position int              `json:"position"`
	Children []headingPayload `json:"children"`
}

func (p headingPayload) toNode() core.HeadingNode {
	children := make([]core.HeadingNode, 0, len(p.Children))
	for _, child := range p.Children {
		children = append(children, child.toNode())
	}
	return core.HeadingNode{Text: p.Text, Level: p.Level, Offset: p.Position, Children: children}
}

type conceptPayload struct {
	Term       string  `json:"term"`
	Definition string  `json:"definition"`
	Context    string  `json:"context"`
	Importance float64 `json:"importance"`
}

// structureAnalysis is the normalized output of either the model path
// or the rule-based fallback.
type structureAnalysis struct {
	documentType core.DocumentType
	blocks       []core.TextBlock
	headings     []core.HeadingNode
	concepts     []core.Concept
}

func (s *structuringStage) run(ctx context.Context, state *State) {
	start := time.Now()
	state.CurrentStage = StageStructuring

	// Extraction failure terminates the run before this stage, but the
	// guard keeps the stage safe when invoked directly.
	if result := state.Result(StageExtraction); result == nil || !result.Succeeded {
		msg := "structuring skipped: extraction failed"
		s.logger.Warn(msg, "run", state.RunId)
		state.recordResult(&StageResult{Stage: StageStructuring, Err: msg})
		return
	}

	text := state.CorrectedText
	if text == "" {
		msg := fmt.Sprintf("structuring failed: %v", ErrMissingInput)
		state.recordError(msg)
		state.recordResult(&StageResult{
			Stage:   StageStructuring,
			Err:     msg,
			Elapsed: time.Since(start),
		})
		return
	}

	analysis := s.analyze(ctx, state, text)

	state.Blocks = analysis.blocks
	state.Headings = analysis.headings
	state.Concepts = analysis.concepts
	state.DocumentType = analysis.documentType

	s.logger.Info("structure analysis complete",
		"run", state.RunId,
		"type", analysis.documentType,
		"blocks", len(analysis.blocks),
		"concepts", len(analysis.concepts))

	state.recordResult(&StageResult{
		Stage:     StageStructuring,
		Succeeded: true,
		Summary: map[string]any{
			"document_type": string(analysis.documentType),
			"block_count":   len(analysis.blocks),
			"heading_count": len(analysis.headings),
			"concept_count": len(analysis.concepts),
		},
		Elapsed: time.Since(start),
	})
}

func (s *structuringStage) analyze(ctx context.Context, state *State, text string) structureAnalysis {
	response, err := s.completer.Complete(ctx, structurePrompt,
		"Analyze the structure of the following text:\n\n```\n"+text+"\n```")
	if err != nil {
		s.logger.Warn("structure call failed, using rule-based analysis",
			"run", state.RunId, "err", err)
		state.recordError(fmt.Sprintf("structure analysis failed: %v", err))
		return analyzeStructure(text)
	}

	var parsed structureResponse
	if err := decodeResponse(response, &parsed); err != nil {
		s.logger.Warn("unparseable structure response, using rule-based analysis",
			"run", state.RunId, "err", err)
		return analyzeStructure(text)
	}

	analysis := structureAnalysis{
		documentType: core.DocumentType(parsed.DocumentType),
		blocks:       make([]core.TextBlock, 0, len(parsed.TextBlocks)),
		headings:     make([]core.HeadingNode, 0, len(parsed.Headings)),
		concepts:     make([]core.Concept, 0, len(parsed.KeyConcepts)),
	}
	if core.ValidateDocumentType(analysis.documentType) != nil {
		analysis.documentType = core.DocumentTypeNotes
	}
	for _, block := range parsed.TextBlocks {
		kind := core.BlockKind(block.BlockType)
		if kind == "" {
			kind = core.BlockKindParagraph
		}
		analysis.blocks = append(analysis.blocks, core.TextBlock{
			Content:  block.Content,
			Kind:     kind,
			Level:    block.Level,
			Metadata: block.Metadata,
		})
	}
	for _, heading := range parsed.Headings {
		analysis.headings = append(analysis.headings, heading.toNode())
	}
	for _, concept := range parsed.KeyConcepts {
		analysis.concepts = append(analysis.concepts, core.Concept{
			Term:       concept.Term,
			Definition: concept.Definition,
			Context:    concept.Context,
			Importance: concept.Importance,
		})
	}
	return analysis
}

var markdownHeading = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

var conceptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\*\*([^*]+)\*\*`), // bold
	regexp.MustCompile(`「([^」]+)」`),       // CJK corner quotes
	regexp.MustCompile(`“([^”]+)”`),       // curly quotes
	regexp.MustCompile(`《([^》]+)》`),       // book-title brackets
}

// analyzeStructure is the deterministic fallback: a line classifier
// plus emphasis-pattern concept extraction. Same input, same output.
func analyzeStructure(text string) structureAnalysis {
	analysis := structureAnalysis{
		documentType: core.DocumentTypeNotes,
		blocks:       []core.TextBlock{},
		headings:     []core.HeadingNode{},
		concepts:     []core.Concept{},
	}

	offset := 0
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			offset += len(rawLine) + 1
			continue
		}

		switch {
		case markdownHeading.MatchString(line):
			match := markdownHeading.FindStringSubmatch(line)
			level := len(match[1])
			analysis.blocks = append(analysis.blocks, core.TextBlock{
				Content: match[2],
				Kind:    core.BlockKindHeading,
				Level:   level,
			})
			analysis.headings = append(analysis.headings, core.HeadingNode{
				Text:   match[2],
				Level:  level,
				Offset: offset,
			})
		case startsWithListMarker(line):
			analysis.blocks = append(analysis.blocks, core.TextBlock{
				Content: line,
				Kind:    core.BlockKindList,
				Level:   1,
			})
		case looksLikeHeading(line):
			analysis.blocks = append(analysis.blocks, core.TextBlock{
				Content: line,
				Kind:    core.BlockKindHeading,
				Level:   2,
			})
			analysis.headings = append(analysis.headings, core.HeadingNode{
				Text:   line,
				Level:  2,
				Offset: offset,
			})
		default:
			analysis.blocks = append(analysis.blocks, core.TextBlock{
				Content: line,
				Kind:    core.BlockKindParagraph,
			})
		}

		offset += len(rawLine) + 1
	}

	analysis.concepts = extractConcepts(text)
	return analysis
}

func startsWithListMarker(line string) bool {
	if line == "" {
		return false
	}
	switch []rune(line)[0] {
	case '-', '•', '*':
		return true
	}
	return line[0] >= '0' && line[0] <= '9'
}

func looksLikeHeading(line string) bool {
	runes := []rune(line)
	if len(runes) >= 50 {
		return false
	}
	last := runes[len(runes)-1]
	if strings.ContainsRune("。，：、.,:;", last) {
		return false
	}
	return true
}

// extractConcepts pulls candidate key terms out of emphasis patterns:
// bold markers, two quotation styles, and book-title brackets.
func extractConcepts(text string) []core.Concept {
	const (
		minTermRunes       = 2
		maxTermRunes       = 29
		contextWindowRunes = 20
		fallbackImportance = 0.7
	)

	runes := []rune(text)
	concepts := []core.Concept{}
	for _, pattern := range conceptPatterns {
		for _, match := range pattern.FindAllStringSubmatchIndex(text, -1) {
			term := strings.TrimSpace(text[match[2]:match[3]])
			termRunes := len([]rune(term))
			if termRunes < minTermRunes || termRunes > maxTermRunes {
				continue
			}

			ctxStart := len([]rune(text[:match[0]])) - contextWindowRunes
			if ctxStart < 0 {
				ctxStart = 0
			}
			ctxEnd := len([]rune(text[:match[1]])) + contextWindowRunes
			if ctxEnd > len(runes) {
				ctxEnd = len(runes)
			}

			concepts = append(concepts, core.Concept{
				Term:       term,
				Context:    string(runes[ctxStart:ctxEnd]),
				Importance: fallbackImportance,
			})
		}
	}
	return concepts
}
