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

package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates an invalid or incomplete AI configuration.
	ErrConfiguration = errors.New("ai configuration error")

	// ErrMissingAPIKey indicates no credentials were supplied.
	ErrMissingAPIKey = fmt.Errorf("%w: API key is required", ErrConfiguration)

	// ErrEmbeddingService indicates the embedding backend failed or returned no vector.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrGeneration indicates the chat completion backend failed.
	ErrGeneration = errors.New("generation error")

	// ErrSchemaViolation indicates a model reply could not be decoded into a Reply.
	ErrSchemaViolation = errors.New("reply violates output schema")

	// ErrTranscription indicates the speech-to-text backend failed.
	ErrTranscription = errors.New("transcription error")
)
