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

package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrChunkRepositoryRequired is returned when NewReembedder receives a nil repository.
	ErrChunkRepositoryRequired = errors.New("chunk repository is required")

	// ErrEmbedderRequired is returned when NewReembedder receives a nil embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrModelRequired is returned when no target model is configured.
	ErrModelRequired = errors.New("target embedding model is required")

	// ErrZeroVector is returned when the embedder produces a vector with no magnitude.
	ErrZeroVector = errors.New("embedding has zero magnitude")
)
