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
	"regexp"
	"sort"

	"github.com/poiesic/inkwell/core"
)

// Per-class confidence constants for the rule-based detector.
const (
	formulaConfidence = 0.8
	codeConfidence    = 0.7
	tableConfidence   = 0.6
)

var formulaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\$[^$]+\$\$`),
	regexp.MustCompile(`\$[^$]+\$`),
	regexp.MustCompile(`[∑∫∂∇∆√±×÷≤≥≠≈∞∈∉⊂⊃∪∩α-ωΑ-Ω]`),
	regexp.MustCompile(`(?:sin|cos|tan|log|ln|exp|lim|max|min)\s*[(\[]`),
}

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```.*?```"),
	regexp.MustCompile("`[^`]+`"),
	regexp.MustCompile(`(?:def|class|function|import|from|return|if|else|for|while)\s+\w+`),
}

var tablePattern = regexp.MustCompile(`(?:\|[^|\n]+)+\|`)

// DetectSpans scans text for special content with a fixed set of
// pattern classes. It is the deterministic fallback used when model
// correction fails; it never errors and may return an empty list.
func DetectSpans(text string) []core.SpecialSpan {
	spans := []core.SpecialSpan{}

	appendMatches := func(kind core.SpanKind, confidence float64, patterns ...*regexp.Regexp) {
		for _, pattern := range patterns {
			for _, loc := range pattern.FindAllStringIndex(text, -1) {
				raw := text[loc[0]:loc[1]]
				spans = append(spans, core.SpecialSpan{
					Kind:       kind,
					RawText:    raw,
					Rendered:   raw,
					Offset:     loc[0],
					Confidence: confidence,
				})
			}
		}
	}

	appendMatches(core.SpanKindFormula, formulaConfidence, formulaPatterns...)
	appendMatches(core.SpanKindCode, codeConfidence, codePatterns...)
	appendMatches(core.SpanKindTable, tableConfidence, tablePattern)

	// Stable order by position in the source text.
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Offset < spans[j].Offset
	})

	return spans
}
