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

package ingestion

import (
	"context"

	"github.com/poiesic/logilink/core"
)

// chunkJob is one chunk of a document waiting to be stored.
type chunkJob struct {
	contractID   core.ID
	documentName string
	ordinal      int
	text         string
}

// processor is an internal interface for the per-chunk stage of ingestion.
type processor interface {
	// process stores a single chunk and everything derived from it.
	// Returns the stored chunk, or the chunk written so far with an error.
	process(ctx context.Context, job chunkJob) (*core.Chunk, error)
}
