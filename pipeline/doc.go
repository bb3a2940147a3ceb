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


// Package pipeline converts a photographed page of notes into a
// cross-referenced study document.
//
// A run threads a single State through five stages:
//
//	extraction -> structuring -> enrichment -> [assessment] -> assembly
//
// Routing between stages is an explicit state machine (see Route).
// Extraction failure terminates the run; every other stage degrades
// through a deterministic rule-based fallback instead of failing the
// run. The caller always receives a terminal State, never a panic or
// an unhandled model error.
package pipeline
