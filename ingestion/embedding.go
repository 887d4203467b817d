package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
)

// embeddingProcessor embeds a chunk, then stores the chunk and its embedding row.
type embeddingProcessor struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	model           string
	logger          *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(chunkRepository storage.ChunkRepository, embedder ai.Embedder, model string, logger *slog.Logger) (processor, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if model == "" {
		return nil, ErrEmbeddingModelRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		chunkRepository: chunkRepository,
		embedder:        embedder,
		model:           model,
		logger:          logger.With("processor", "embeddings"),
	}, nil
}

func (ep *embeddingProcessor) process(ctx context.Context, job chunkJob) (*core.Chunk, error) {
	vector, err := ep.embedder.EmbedText(ctx, job.text)
	if err != nil {
		ep.logger.Error("error generating embedding", "contract_id", job.contractID, "chunk", job.ordinal, "err", err)
		return nil, fmt.Errorf("chunk %d: %w", job.ordinal, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("chunk %d: %w: no vector returned", job.ordinal, ai.ErrEmbeddingService)
	}

	chunk, err := ep.chunkRepository.AddChunk(ctx, &core.Chunk{
		ContractID: job.contractID,
		Ordinal:    job.ordinal,
		Content:    job.text,
		Metadata: map[string]any{
			core.ChunkDocumentKey: job.documentName,
			"chunk":        job.ordinal,
		},
	})
	if err != nil {
		ep.logger.Error("error storing chunk", "contract_id", job.contractID, "chunk", job.ordinal, "err", err)
		return nil, fmt.Errorf("chunk %d: %w", job.ordinal, err)
	}

	_, err = ep.chunkRepository.AddEmbedding(ctx, &core.EmbeddingRecord{
		ChunkID: chunk.ID,
		Vector:  vector,
		Model:   ep.model,
	})
	if err != nil {
		ep.logger.Error("error storing embedding", "chunk_id", chunk.ID, "err", err)
		return chunk, fmt.Errorf("chunk %d: %w", job.ordinal, err)
	}

	ep.logger.Debug("stored chunk", "chunk_id", chunk.ID, "chunk", job.ordinal, "dims", len(vector))
	return chunk, nil
}
