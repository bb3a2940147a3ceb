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

// Route decides the next stage after one has finished. It is a pure
// function of the finished stage and the state, implementing a linear
// machine with two optional skips:
//
//	extraction  -> structuring, or terminal when extraction failed
//	structuring -> enrichment, unconditionally
//	enrichment  -> assessment when enabled, otherwise assembly
//	assessment  -> assembly, unconditionally
//	assembly    -> terminal
func Route(finished StageID, state *State) StageID {
	switch finished {
	case StageExtraction:
		if result := state.Result(StageExtraction); result != nil && result.Succeeded {
			return StageStructuring
		}
		state.Status = StatusFailed
		return StageTerminal
	case StageStructuring:
		return StageEnrichment
	case StageEnrichment:
		if state.Input.GenerateAssessment {
			return StageAssessment
		}
		return StageAssembly
	case StageAssessment:
		return StageAssembly
	case StageAssembly:
		return StageTerminal
	default:
		return StageTerminal
	}
}
