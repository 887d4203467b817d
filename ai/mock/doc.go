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

// Package mock provides test doubles for the ai package interfaces.
//
// The mocks need no network access and are safe for concurrent use, so
// pipelines that fan work out to a pool can share one instance.
//
// # Usage
//
//	provider := mock.NewMockProvider()
//
//	// Customize behavior
//	mockEmbedder := mock.NewMockEmbedder().
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return []float32{0.1, 0.2, 0.3}, nil
//	    })
//	mockGenerator := mock.NewMockGenerator().WithReply(`{"answer":"held at FRA"}`)
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockGenerator: Returns a valid reply whose answer is DefaultAnswer
//   - MockTranscriber: Echoes the audio bytes as text in the hinted language
//   - MockProvider: Aggregates the three and reports DefaultEmbeddingModel
package mock
