package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_ExtractionSucceeded(t *testing.T) {
	state := NewState(Input{})
	state.recordResult(&StageResult{Stage: StageExtraction, Succeeded: true})

	assert.Equal(t, StageStructuring, Route(StageExtraction, state))
}

func TestRoute_ExtractionFailedTerminatesRun(t *testing.T) {
	state := NewState(Input{})
	state.recordResult(&StageResult{Stage: StageExtraction, Err: "ocr failed"})

	assert.Equal(t, StageTerminal, Route(StageExtraction, state))
	assert.Equal(t, StatusFailed, state.Status)
}

func TestRoute_StructuringAlwaysContinues(t *testing.T) {
	state := NewState(Input{})
	// Even a failed structuring result continues to enrichment.
	state.recordResult(&StageResult{Stage: StageStructuring, Err: "parse failed"})

	assert.Equal(t, StageEnrichment, Route(StageStructuring, state))
}

func TestRoute_EnrichmentBranchesOnAssessmentFlag(t *testing.T) {
	withAssessment := NewState(Input{GenerateAssessment: true})
	assert.Equal(t, StageAssessment, Route(StageEnrichment, withAssessment))

	withoutAssessment := NewState(Input{})
	assert.Equal(t, StageAssembly, Route(StageEnrichment, withoutAssessment))
}

func TestRoute_AssessmentAlwaysContinues(t *testing.T) {
	state := NewState(Input{GenerateAssessment: true})
	assert.Equal(t, StageAssembly, Route(StageAssessment, state))
}

func TestRoute_AssemblyTerminates(t *testing.T) {
	state := NewState(Input{})
	assert.Equal(t, StageTerminal, Route(StageAssembly, state))
}
