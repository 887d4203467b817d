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

package storage

import (
	"context"

	"github.com/poiesic/logilink/core"
)

// ShipmentRepository provides operations for shipments and their tracking events.
type ShipmentRepository interface {
	// PutShipment inserts or replaces a shipment.
	// A zero ID is assigned from the shipment sequence.
	PutShipment(ctx context.Context, shipment *core.Shipment) (*core.Shipment, error)

	// GetShipment retrieves a shipment by ID.
	// Returns ErrNotFound if the shipment doesn't exist.
	GetShipment(ctx context.Context, id core.ID) (*core.Shipment, error)

	// ListShipments returns every shipment ordered by ID.
	ListShipments(ctx context.Context) ([]*core.Shipment, error)

	// AddEvents appends tracking events. Events are never updated.
	// Returns ErrNotFound if an event references an unknown shipment.
	AddEvents(ctx context.Context, events ...*core.TrackingEvent) ([]*core.TrackingEvent, error)

	// LatestEvent returns the most recent event for a shipment, ordered by
	// timestamp and then by highest event ID. Returns nil, nil when the
	// shipment has no events.
	LatestEvent(ctx context.Context, shipmentID core.ID) (*core.TrackingEvent, error)
}

// ContractRepository provides operations for contracts.
type ContractRepository interface {
	// AddContract stores a new contract. A zero ID is assigned from the sequence.
	// Returns ErrDuplicateKey if a contract with the given ID already exists.
	AddContract(ctx context.Context, contract *core.Contract) (*core.Contract, error)

	// GetContract retrieves a contract by ID.
	// Returns ErrNotFound if the contract doesn't exist.
	GetContract(ctx context.Context, id core.ID) (*core.Contract, error)

	// ListContracts returns every contract ordered by ID.
	ListContracts(ctx context.Context) ([]*core.Contract, error)

	// SetContractActive toggles whether the contract's chunks are searchable.
	SetContractActive(ctx context.Context, id core.ID, active bool) error

	// DeleteContract removes a contract together with its chunks, their
	// embeddings and its document fingerprints.
	DeleteContract(ctx context.Context, id core.ID) error
}

// ChunkRepository provides operations for document chunks and their embeddings.
type ChunkRepository interface {
	// AddChunk stores a new chunk and assigns its ID.
	// Returns ErrNotFound if the owning contract doesn't exist.
	AddChunk(ctx context.Context, chunk *core.Chunk) (*core.Chunk, error)

	// GetChunk retrieves a chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// ListChunks returns a contract's chunks ordered by ordinal.
	ListChunks(ctx context.Context, contractID core.ID) ([]*core.Chunk, error)

	// ListChunksAfter returns up to limit chunks with ID greater than cursor,
	// ordered by ID.
	ListChunksAfter(ctx context.Context, cursor core.ID, limit int) ([]*core.Chunk, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// AddEmbedding stores a new embedding row. Existing rows are never updated.
	// Returns ErrNotFound if the chunk doesn't exist.
	AddEmbedding(ctx context.Context, record *core.EmbeddingRecord) (*core.EmbeddingRecord, error)

	// EmbeddingModels returns the distinct model names embedded for a chunk.
	EmbeddingModels(ctx context.Context, chunkID core.ID) ([]string, error)

	// PruneEmbeddings deletes every embedding whose model differs from
	// keepModel and returns the number removed.
	PruneEmbeddings(ctx context.Context, keepModel string) (int, error)

	// HasFingerprint reports whether a document fingerprint was recorded for the contract.
	HasFingerprint(ctx context.Context, contractID, fingerprint core.ID) (bool, error)

	// RecordFingerprint marks a document as ingested for the contract under
	// the given document name.
	RecordFingerprint(ctx context.Context, contractID, fingerprint core.ID, documentName string) error

	// DeleteDocument removes a document's chunks with ID below before,
	// together with their embeddings and the document's fingerprints.
	// A zero before removes every chunk of the document. Returns the number
	// of chunks removed.
	DeleteDocument(ctx context.Context, contractID core.ID, documentName string, before core.ID) (int, error)
}

// MatchQuery describes a vector similarity search.
type MatchQuery struct {
	// Vector is the query embedding.
	Vector []float32

	// MatchCount is the maximum number of hits, must be positive.
	MatchCount int

	// Threshold is the minimum similarity in [0, 1].
	Threshold float64

	// Model restricts matching to embeddings produced by this model.
	// Empty matches every model and keeps each chunk's best score.
	Model string
}

// Validate checks the query parameters.
func (q MatchQuery) Validate() error {
	switch {
	case len(q.Vector) == 0:
		return ErrInvalidQuery
	case q.MatchCount <= 0:
		return ErrInvalidQuery
	case q.Threshold != q.Threshold || q.Threshold < 0 || q.Threshold > 1:
		return ErrInvalidQuery
	}
	return nil
}

// VectorIndex performs similarity search over stored chunk embeddings.
type VectorIndex interface {
	// MatchChunks returns chunks whose similarity is at least Threshold,
	// highest first, at most MatchCount. Chunks of inactive contracts are
	// skipped. An empty store yields an empty, non-nil slice.
	MatchChunks(ctx context.Context, query MatchQuery) ([]core.SearchHit, error)
}

// CheckpointRepository provides checkpoint persistence for long-running processors.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for a processor type.
	DeleteCheckpoint(ctx context.Context, processorType string) error
}
