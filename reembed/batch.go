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

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
)

// BatchResult counts what happened to one batch of chunks.
type BatchResult struct {
	Embedded int
	Skipped  int
}

// BatchProcessor embeds batches of chunks with the target model.
type BatchProcessor struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	model          string
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts per chunk embedding
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, model string, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		model:          model,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds each chunk in order and stores a new embedding row tagged
// with the target model. Chunks that already carry the model are skipped.
// The first failure stops the batch; the counts so far are returned with it.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) (BatchResult, error) {
	var result BatchResult

	for _, chunk := range chunks {
		models, err := bp.repo.EmbeddingModels(ctx, chunk.ID)
		if err != nil {
			return result, fmt.Errorf("failed to read models of chunk %d: %w", chunk.ID, err)
		}
		if slices.Contains(models, bp.model) {
			result.Skipped++
			continue
		}

		var vector []float32
		err = RetryWithBackoff(ctx, func(ctx context.Context) error {
			raw, err := bp.embedder.EmbedText(ctx, chunk.Content)
			if err != nil {
				return err
			}
			vector, err = NormalizeVector(raw)
			return err
		}, bp.maxRetries, bp.retryBaseDelay)
		if err != nil {
			return result, fmt.Errorf("failed to embed chunk %d after %d attempts: %w", chunk.ID, bp.maxRetries, err)
		}

		if _, err := bp.repo.AddEmbedding(ctx, &core.EmbeddingRecord{
			ChunkID: chunk.ID,
			Vector:  vector,
			Model:   bp.model,
		}); err != nil {
			return result, fmt.Errorf("failed to store embedding of chunk %d: %w", chunk.ID, err)
		}
		result.Embedded++
	}

	return result, nil
}
