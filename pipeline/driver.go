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
	"log/slog"

	"github.com/poiesic/inkwell/ai"
	"github.com/poiesic/inkwell/retrieval"
)

// Driver composes the five stages and the router into one executable
// graph. It holds no per-run state: independent runs may execute
// concurrently as long as the AI provider and the search are safe for
// concurrent use.
type Driver struct {
	extraction  *extractionStage
	structuring *structuringStage
	enrichment  *enrichmentStage
	assessment  *assessmentStage
	assembly    *assemblyStage
	logger      *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver) error

// WithSearch wires a similarity search for the enrichment stage.
// Without one, retrieval is skipped and runs proceed without
// historical context.
func WithSearch(search *retrieval.Search) Option {
	return func(d *Driver) error {
		d.enrichment.search = search
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		d.extraction.logger = logger
		d.structuring.logger = logger
		d.enrichment.logger = logger
		d.assessment.logger = logger
		d.assembly.logger = logger
		return nil
	}
}

// NewDriver creates a pipeline driver backed by the given AI provider.
func NewDriver(provider ai.Provider, opts ...Option) (*Driver, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	logger := slog.Default().With("component", "pipeline")
	d := &Driver{
		extraction: &extractionStage{
			recognizer: provider.Recognizer(),
			completer:  provider.Completer(),
			logger:     logger,
		},
		structuring: &structuringStage{
			completer: provider.Completer(),
			logger:    logger,
		},
		enrichment: &enrichmentStage{
			embedder:  provider.Embedder(),
			completer: provider.Completer(),
			logger:    logger,
		},
		assessment: &assessmentStage{
			completer: provider.Completer(),
			logger:    logger,
		},
		assembly: &assemblyStage{
			completer: provider.Completer(),
			logger:    logger,
		},
		logger: logger,
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Run executes one pipeline run to its terminal state. The returned
// state always carries a terminal status, the accumulated error list,
// and the best-effort final document; Run itself never fails once the
// driver is constructed.
func (d *Driver) Run(ctx context.Context, input Input) *State {
	state := NewState(input)
	state.Status = StatusRunning

	d.logger.Info("run starting",
		"run", state.RunId,
		"course", input.CourseId,
		"assessment", input.GenerateAssessment,
		"retrieval", state.UseRetrieval)

	stage := StageExtraction
	for stage != StageTerminal {
		switch stage {
		case StageExtraction:
			d.extraction.run(ctx, state)
		case StageStructuring:
			d.structuring.run(ctx, state)
		case StageEnrichment:
			d.enrichment.run(ctx, state)
		case StageAssessment:
			d.assessment.run(ctx, state)
		case StageAssembly:
			d.assembly.run(ctx, state)
		}
		stage = Route(stage, state)
	}
	state.CurrentStage = StageTerminal

	d.logger.Info("run finished",
		"run", state.RunId,
		"status", state.Status,
		"errors", len(state.Errors))

	return state
}
