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
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
)

// checkpointPrefix namespaces reembed checkpoints by target model.
const checkpointPrefix = "reembed:"

// Config holds reembedding parameters.
type Config struct {
	// Model tags the new embedding rows. Required.
	Model string

	// BatchSize is the number of chunks to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per chunk embedding
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Prune deletes embeddings of every other model once all chunks are migrated.
	Prune bool
}

// DefaultConfig returns a Config with sensible defaults and no model.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Summary reports the outcome of a run.
type Summary struct {
	Model       string
	Total       int
	Embedded    int
	Skipped     int
	Pruned      int
	ResumedFrom core.ID
	Elapsed     time.Duration
}

// Reembedder migrates every chunk to the configured embedding model.
type Reembedder struct {
	chunks      storage.ChunkRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *ChunkIterator
	logger      *slog.Logger
}

// NewReembedder creates a reembedder. checkpoints may be nil, in which case
// runs always start from the first chunk. progress may be nil.
func NewReembedder(chunks storage.ChunkRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	model := strings.TrimSpace(config.Model)
	if model == "" {
		return nil, ErrModelRequired
	}
	if config.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		chunks:      chunks,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(chunks, embedder, model, config.MaxRetries, config.RetryDelay),
		iterator:    NewChunkIterator(chunks, config.BatchSize),
		logger:      slog.Default().With("component", "reembed", "model", model),
	}, nil
}

// CheckpointName returns the checkpoint key used for model.
func CheckpointName(model string) string {
	return checkpointPrefix + strings.TrimSpace(model)
}

// Run embeds every chunk that lacks the target model. The cursor is
// checkpointed after each batch and cleared once the run completes.
func (r *Reembedder) Run(ctx context.Context) (*Summary, error) {
	model := r.processor.model
	summary := &Summary{Model: model}

	total, err := r.chunks.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	summary.Total = total
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in database (0 chunks)\n")
		return summary, nil
	}

	cursor, err := r.loadCursor(ctx)
	if err != nil {
		return nil, err
	}
	summary.ResumedFrom = cursor
	if cursor != 0 {
		r.logger.Info("resuming from checkpoint", "after_chunk", cursor)
	}

	fmt.Fprintf(r.progress, "Reembedding %d chunks with %s (batch size: %d)\n",
		total, model, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, cursor, func(batch []*core.Chunk) error {
		result, err := r.processor.Process(ctx, batch)
		summary.Embedded += result.Embedded
		summary.Skipped += result.Skipped
		tracker.Record(result.Embedded, result.Skipped)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		return r.saveCursor(ctx, batch[len(batch)-1].ID)
	})
	if err != nil {
		r.logger.Error("reembedding stopped", "embedded", summary.Embedded, "err", err)
		return summary, err
	}

	tracker.Finish()
	if err := r.clearCursor(ctx); err != nil {
		return summary, err
	}

	if r.config.Prune {
		pruned, err := r.chunks.PruneEmbeddings(ctx, model)
		if err != nil {
			return summary, fmt.Errorf("failed to prune embeddings: %w", err)
		}
		summary.Pruned = pruned
		r.logger.Info("pruned embeddings of other models", "removed", pruned)
	}

	summary.Elapsed = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Embedded %d chunks, skipped %d in %v\n",
		summary.Embedded, summary.Skipped, summary.Elapsed.Round(time.Millisecond))
	return summary, nil
}

func (r *Reembedder) loadCursor(ctx context.Context) (core.ID, error) {
	if r.checkpoints == nil {
		return 0, nil
	}
	cp, err := r.checkpoints.LoadCheckpoint(ctx, CheckpointName(r.processor.model))
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		return 0, nil
	}
	return cp.LastID, nil
}

func (r *Reembedder) saveCursor(ctx context.Context, last core.ID) error {
	if r.checkpoints == nil {
		return nil
	}
	err := r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: CheckpointName(r.processor.model),
		LastID:        last,
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (r *Reembedder) clearCursor(ctx context.Context) error {
	if r.checkpoints == nil {
		return nil
	}
	if err := r.checkpoints.DeleteCheckpoint(ctx, CheckpointName(r.processor.model)); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	return nil
}
