package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/chunker"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
)

// DefaultDocumentName labels documents ingested without a name.
const DefaultDocumentName = "Uploaded document"

// DuplicatePolicy decides what happens when a document is ingested twice
// into the same contract.
type DuplicatePolicy int

const (
	// RejectDuplicates fails with ErrDuplicateDocument.
	RejectDuplicates DuplicatePolicy = iota
	// AllowDuplicates stores a second copy of every chunk.
	AllowDuplicates
	// ReplaceDocuments rejects identical text like RejectDuplicates, and a
	// new version of a document name replaces that document's earlier chunks
	// once every new chunk is stored.
	ReplaceDocuments
)

// Pipeline orchestrates chunking, embedding and storage of contract documents.
type Pipeline struct {
	contractRepository storage.ContractRepository
	chunkRepository    storage.ChunkRepository
	embedder           ai.Embedder
	pool               *ants.Pool
	proc               processor
	chunkSize          int
	chunkOverlap       int
	duplicates         DuplicatePolicy
	model              string
	logger             *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size used by IngestAll.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunking sets the chunk window size and overlap in characters.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		if err := chunker.Validate(size, overlap); err != nil {
			return err
		}
		p.chunkSize = size
		p.chunkOverlap = overlap
		return nil
	}
}

// WithDuplicatePolicy sets how re-ingesting identical text is handled.
// Default is RejectDuplicates.
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(p *Pipeline) error {
		p.duplicates = policy
		return nil
	}
}

// WithEmbeddingModel sets the model name recorded on embedding rows.
// Default is ai.DefaultEmbeddingModel.
func WithEmbeddingModel(model string) Option {
	return func(p *Pipeline) error {
		if strings.TrimSpace(model) == "" {
			return ErrEmbeddingModelRequired
		}
		p.model = model
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	contractRepository storage.ContractRepository,
	chunkRepository storage.ChunkRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if contractRepository == nil {
		return nil, ErrContractRepositoryRequired
	}
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		contractRepository: contractRepository,
		chunkRepository:    chunkRepository,
		embedder:           embedder,
		pool:               pool,
		chunkSize:          chunker.DefaultSize,
		chunkOverlap:       chunker.DefaultOverlap,
		duplicates:         RejectDuplicates,
		model:              ai.DefaultEmbeddingModel,
		logger:             slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Created after options so the processor sees the final model and logger
	proc, err := newEmbeddingProcessor(chunkRepository, embedder, p.model, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.proc = proc

	return p, nil
}

// Result reports what one Ingest call wrote.
type Result struct {
	ContractID   core.ID
	DocumentName string
	Fingerprint  core.ID

	// Planned is the number of chunks the document split into.
	Planned int

	// Chunks are the chunk rows written, in ordinal order. On failure this
	// may include a final chunk whose embedding row was not written.
	Chunks []*core.Chunk

	// Embedded counts chunks whose embedding row was written.
	Embedded int

	// Replaced counts chunks of an earlier version removed under ReplaceDocuments.
	Replaced int
}

// ChunksIngested returns the number of chunks fully stored with an embedding.
func (r *Result) ChunksIngested() int {
	return r.Embedded
}

// Complete reports whether every planned chunk was stored.
func (r *Result) Complete() bool {
	return r.Embedded == r.Planned
}

// Ingest chunks text and stores every chunk with its embedding under the contract.
//
// Checks run in order: unknown contract (ErrContractNotFound, nothing
// written), empty text (ErrEmptyDocument), already-ingested text
// (ErrDuplicateDocument). The first embedding or storage failure stops the
// document; the partial Result is returned together with the error.
func (p *Pipeline) Ingest(ctx context.Context, contractID core.ID, documentName, text string) (*Result, error) {
	if _, err := p.contractRepository.GetContract(ctx, contractID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: contract %d: %w", ErrContractNotFound, contractID, err)
		}
		return nil, err
	}

	normalized := chunker.Normalize(text)
	if normalized == "" {
		return nil, ErrEmptyDocument
	}

	documentName = strings.TrimSpace(documentName)
	if documentName == "" {
		documentName = DefaultDocumentName
	}

	fingerprint := core.Fingerprint(normalized)
	if p.duplicates != AllowDuplicates {
		seen, err := p.chunkRepository.HasFingerprint(ctx, contractID, fingerprint)
		if err != nil {
			return nil, err
		}
		if seen {
			return nil, fmt.Errorf("%w: %q in contract %d", ErrDuplicateDocument, documentName, contractID)
		}
	}

	pieces, err := chunker.Split(normalized, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ContractID:   contractID,
		DocumentName: documentName,
		Fingerprint:  fingerprint,
		Planned:      len(pieces),
		Chunks:       make([]*core.Chunk, 0, len(pieces)),
	}
	logger := p.logger.With("contract_id", contractID, "document", documentName)
	logger.Info("ingesting document", "chunks", len(pieces))

	for ordinal, piece := range pieces {
		chunk, err := p.proc.process(ctx, chunkJob{
			contractID:   contractID,
			documentName: documentName,
			ordinal:      ordinal,
			text:         piece,
		})
		if chunk != nil {
			result.Chunks = append(result.Chunks, chunk)
		}
		if err != nil {
			logger.Error("ingestion aborted", "ingested", result.Embedded, "planned", result.Planned, "err", err)
			return result, err
		}
		result.Embedded++
	}

	if p.duplicates == ReplaceDocuments && len(result.Chunks) > 0 {
		removed, err := p.chunkRepository.DeleteDocument(ctx, contractID, documentName, result.Chunks[0].ID)
		if err != nil {
			return result, err
		}
		result.Replaced = removed
		if removed > 0 {
			logger.Info("replaced earlier version", "chunks_removed", removed)
		}
	}

	if err := p.chunkRepository.RecordFingerprint(ctx, contractID, fingerprint, documentName); err != nil {
		return result, err
	}

	logger.Info("document ingested", "chunks", result.Embedded)
	return result, nil
}

// Document is one input to IngestAll.
type Document struct {
	ContractID core.ID
	Name       string
	Text       string
}

// IngestAll ingests documents concurrently on the worker pool. Chunks within
// a document are still processed sequentially. Results are returned in input
// order; a failed document yields its partial Result (or nil) and its error
// is joined into the returned error.
func (p *Pipeline) IngestAll(ctx context.Context, docs []Document) ([]*Result, error) {
	results := make([]*Result, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			res, err := p.Ingest(ctx, doc.ContractID, doc.Name, doc.Text)
			results[i] = res
			if err != nil {
				errs[i] = fmt.Errorf("document %q: %w", doc.Name, err)
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
