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

package core

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated from database sequences or content hashing.
type ID uint64

// Fingerprint generates a deterministic ID from document text using BLAKE2b hashing.
// Whitespace runs are collapsed first so reformatted copies of a document share
// a fingerprint.
func Fingerprint(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(strings.Join(strings.Fields(text), " ")))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Shipment is the latest operational snapshot of a tracked shipment.
// Rows are owned by the operational system; the pipeline only reads them.
type Shipment struct {
	ID             ID        `json:"id" yaml:"id"`
	OrganizationID string    `json:"organization_id" yaml:"organization_id"`
	ExternalRef    string    `json:"external_ref,omitempty" yaml:"external_ref"`
	Status         string    `json:"current_status" yaml:"current_status"`
	Location       string    `json:"current_location,omitempty" yaml:"current_location"`
	DelayHours     *float64  `json:"delay_duration_hours" yaml:"delay_duration_hours"`
	LastUpdatedAt  time.Time `json:"last_updated_at" yaml:"last_updated_at"`
	ContractID     *ID       `json:"associated_contract_id,omitempty" yaml:"associated_contract_id"`
}

// DisplayRef returns the external reference, or the numeric id when none is set.
func (s *Shipment) DisplayRef() string {
	if s.ExternalRef != "" {
		return s.ExternalRef
	}
	return strconv.FormatUint(uint64(s.ID), 10)
}

// TrackingEvent is an append-only event in a shipment's history.
type TrackingEvent struct {
	ID          ID        `json:"id" yaml:"id"`
	ShipmentID  ID        `json:"shipment_id" yaml:"shipment_id"`
	Code        string    `json:"event_code,omitempty" yaml:"event_code"`
	Description string    `json:"event_description" yaml:"event_description"`
	Timestamp   time.Time `json:"event_timestamp" yaml:"event_timestamp"`
}

// Contract owns a corpus of document chunks.
type Contract struct {
	ID               ID        `json:"id" yaml:"id"`
	OrganizationID   string    `json:"organization_id" yaml:"organization_id"`
	DocumentName     string    `json:"document_name" yaml:"document_name"`
	Version          string    `json:"version,omitempty" yaml:"version"`
	EmbeddingVersion string    `json:"embedding_version,omitempty" yaml:"embedding_version"`
	Active           bool      `json:"is_active" yaml:"is_active"`
	InsertedAt       time.Time `json:"inserted_at" yaml:"-"`
}

// ChunkDocumentKey is the chunk metadata key holding the source document name.
const ChunkDocumentKey = "documentName"

// Chunk is an immutable slice of a contract document.
// ContractID plus Ordinal is its natural key.
type Chunk struct {
	ID         ID             `json:"id"`
	ContractID ID             `json:"contract_id"`
	Ordinal    int            `json:"chunk_order"`
	Content    string         `json:"content_text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	InsertedAt time.Time      `json:"inserted_at"`
}

// DocumentName returns the name of the document the chunk came from.
func (c *Chunk) DocumentName() string {
	name, _ := c.Metadata[ChunkDocumentKey].(string)
	return name
}

// EmbeddingRecord stores one vector for one chunk.
// Re-embedding writes new records instead of updating existing ones.
type EmbeddingRecord struct {
	ID         ID        `json:"id"`
	ChunkID    ID        `json:"document_id"`
	Vector     []float32 `json:"embedding_vector"`
	Model      string    `json:"model_used"`
	InsertedAt time.Time `json:"inserted_at"`
}

// SearchHit is a ranked chunk returned by vector search. Not persisted.
type SearchHit struct {
	ChunkID    ID             `json:"document_id"`
	ContractID ID             `json:"contract_id"`
	Content    string         `json:"content_text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity"`
}

// ReasoningRequest is the pipeline entry contract.
type ReasoningRequest struct {
	Query      string `json:"query"`
	ShipmentID *ID    `json:"entityId,omitempty"`
	Language   Locale `json:"language,omitempty"`
}

// LiveData is a shipment snapshot merged with its latest event.
type LiveData struct {
	Shipment
	LatestEvent *TrackingEvent `json:"latest_event"`
}

// ReasoningAnswer is the shaped output of the pipeline.
type ReasoningAnswer struct {
	Answer     string      `json:"answer"`
	Language   Locale      `json:"language"`
	LiveData   *LiveData   `json:"liveData,omitempty"`
	Citations  []SearchHit `json:"citations"`
	Confidence float64     `json:"confidence"`
	Trace      []string    `json:"reasoning_trace"`
}

// Transcription is the result of converting speech to text.
type Transcription struct {
	Text       string  `json:"text"`
	Language   Locale  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Checkpoint records how far a long-running processor got.
type Checkpoint struct {
	ProcessorType string    `json:"processor_type"`
	LastID        ID        `json:"last_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}
