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
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/inkwell/core"
)

// Status is the lifecycle status of a pipeline run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// StageID identifies one stage of the pipeline.
type StageID string

const (
	StageExtraction  StageID = "extraction"
	StageStructuring StageID = "structuring"
	StageEnrichment  StageID = "enrichment"
	StageAssessment  StageID = "assessment"
	StageAssembly    StageID = "assembly"

	// StageTerminal is the pseudo-stage the router returns when the run
	// is over. No stage executes for it.
	StageTerminal StageID = "terminal"
)

// Input holds the immutable inputs of one pipeline run.
type Input struct {
	// Image is the photographed page, as raw bytes.
	Image []byte
	// CourseId scopes retrieval. Empty disables retrieval.
	CourseId string
	// CourseName is a human-readable label for the scope.
	CourseName string
	// Hint is optional free-text context supplied by the caller.
	Hint string
	// ActorId identifies the requesting user, for diagnostics only.
	ActorId string
	// GenerateAssessment enables the assessment stage.
	GenerateAssessment bool
}

// StageResult is the uniform per-stage outcome every stage records,
// regardless of internal fallback behavior.
type StageResult struct {
	Stage     StageID
	Succeeded bool
	// Skipped marks a deliberate no-op, such as assessment being
	// disabled. A skipped stage is still a succeeded stage.
	Skipped bool
	// Summary carries small stage-specific counters for diagnostics.
	Summary map[string]any
	// Err holds the failure message when Succeeded is false.
	Err     string
	Elapsed time.Duration
}

// RunMetadata summarizes a finished run. Built by the assembly stage.
type RunMetadata struct {
	TotalElapsed        time.Duration
	StageElapsed        map[StageID]time.Duration
	Confidence          float64
	DocumentType        core.DocumentType
	RelatedCount        int
	ConceptCount        int
	ReviewItemCount     int
	FlashcardCount      int
	SpecialSpanCount    int
	Errors              []string
	StagesRun           []StageID
	UsedRetrieval       bool
	GeneratedAssessment bool
	CompletedAt         time.Time
}

// State is the single mutable record threaded through every stage of a
// run. The driver owns it; exactly one stage mutates it at a time, and
// no stage reads fields written by a later stage.
type State struct {
	// RunId uniquely identifies this run in logs and diagnostics.
	RunId uuid.UUID

	Input Input
	// UseRetrieval is derived at construction: true iff a course
	// scope was supplied.
	UseRetrieval bool

	// Extraction output.
	RawText       string
	CorrectedText string
	Confidence    float64
	SpecialSpans  []core.SpecialSpan

	// Structuring output.
	Blocks       []core.TextBlock
	Headings     []core.HeadingNode
	Concepts     []core.Concept
	DocumentType core.DocumentType

	// Enrichment output.
	Related          []*core.RelatedDocument
	RetrievalContext string
	EnhancedContent  string
	CrossReferences  []core.CrossReference

	// Assessment output.
	ReviewItems []core.ReviewItem
	Flashcards  []core.Flashcard
	KeyPoints   []string

	// Assembly output.
	FinalDocument string
	Metadata      *RunMetadata

	// Control fields.
	Status       Status
	CurrentStage StageID
	// Errors accumulates diagnostics across stages. Append-only.
	Errors    []string
	Timings   map[StageID]time.Duration
	StagesRun []StageID
	results   map[StageID]*StageResult
}

// NewState constructs the state for one run with empty collections and
// pending status.
func NewState(input Input) *State {
	return &State{
		RunId:        uuid.New(),
		Input:        input,
		UseRetrieval: input.CourseId != "",
		SpecialSpans: []core.SpecialSpan{},
		Blocks:       []core.TextBlock{},
		Headings:     []core.HeadingNode{},
		Concepts:     []core.Concept{},
		Related:      []*core.RelatedDocument{},
		ReviewItems:  []core.ReviewItem{},
		Flashcards:   []core.Flashcard{},
		KeyPoints:    []string{},
		Status:       StatusPending,
		Errors:       []string{},
		Timings:      make(map[StageID]time.Duration),
		results:      make(map[StageID]*StageResult),
	}
}

// Result returns the recorded StageResult for a stage, or nil if the
// stage has not run.
func (s *State) Result(stage StageID) *StageResult {
	return s.results[stage]
}

// recordResult attaches a stage's outcome and timing to the state.
func (s *State) recordResult(result *StageResult) {
	s.results[result.Stage] = result
	s.Timings[result.Stage] = result.Elapsed
	s.StagesRun = append(s.StagesRun, result.Stage)
}

// recordError appends a diagnostic to the accumulated error list.
func (s *State) recordError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// bestContent returns the enhanced content when present, falling back
// to the corrected transcript and finally the raw OCR text.
func (s *State) bestContent() string {
	if s.EnhancedContent != "" {
		return s.EnhancedContent
	}
	if s.CorrectedText != "" {
		return s.CorrectedText
	}
	return s.RawText
}
