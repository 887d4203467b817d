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

// Package storage provides the storage abstraction layer for logilink.
//
// This package defines repository interfaces that decouple storage implementation
// from the pipeline. The structured side (shipments, tracking events, contracts)
// and the vector side (chunks, embeddings, similarity search) share one backend
// but are reached through separate interfaces so each stage depends only on
// what it reads.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return interfaces or aggregate
// stores; internal helpers may return concrete types.
//
// # Architecture
//
//   - ShipmentRepository: shipments and append-only tracking events
//   - ContractRepository: contracts and cascading deletes
//   - ChunkRepository: chunks, embedding rows and document fingerprints
//   - VectorIndex: similarity search over embeddings
//   - CheckpointRepository: resumable processor progress
//
// # Usage
//
//	store, err := badger.OpenStore("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
