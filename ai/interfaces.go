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
	"context"

	"github.com/poiesic/logilink/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Failures and empty vectors are reported as ErrEmbeddingService.
	// No batch variant exists: callers embed one text per call.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Generator sends an ordered conversation to a chat completion backend and
// decodes the reply against the output schema.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns a tagged decode result. The error return is reserved
	// for transport failures (wrapped ErrGeneration); a reply that fails the
	// schema is reported through Decoded.Violation instead.
	Generate(ctx context.Context, messages []Message) (Decoded, error)
}

// Transcriber converts spoken audio to text.
// Implementations must be thread-safe for concurrent use.
type Transcriber interface {
	// Transcribe sends audio with a language hint and returns the transcript.
	// The returned language is the recognized one when the backend reports
	// a supported locale, otherwise the hint.
	Transcribe(ctx context.Context, audio []byte, lang core.Locale) (*core.Transcription, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// Services are constructed once at startup and shared across requests.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// Transcriber returns the speech-to-text service.
	Transcriber() Transcriber

	// EmbeddingModel names the model whose vectors Embedder produces.
	EmbeddingModel() string

	// Close releases resources held by the provider and its services.
	Close() error
}
