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
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore opens an in-memory store holding one contract with n chunks,
// each embedded with oldModel when it is non-empty.
func setupTestStore(t *testing.T, n int, oldModel string) (*badger.Store, []*core.Chunk) {
	t.Helper()
	ctx := context.Background()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	contract, err := store.Contracts.AddContract(ctx, &core.Contract{DocumentName: "Master Services Agreement", Active: true})
	require.NoError(t, err)

	chunks := make([]*core.Chunk, n)
	for i := 0; i < n; i++ {
		chunks[i], err = store.Chunks.AddChunk(ctx, &core.Chunk{
			ContractID: contract.ID,
			Ordinal:    i,
			Content:    fmt.Sprintf("clause %d", i),
		})
		require.NoError(t, err)
		if oldModel != "" {
			_, err = store.Chunks.AddEmbedding(ctx, &core.EmbeddingRecord{ChunkID: chunks[i].ID, Vector: []float32{1, 0}, Model: oldModel})
			require.NoError(t, err)
		}
	}
	return store, chunks
}

func TestChunkIterator_Batches(t *testing.T) {
	store, chunks := setupTestStore(t, 5, "")

	iter := NewChunkIterator(store.Chunks, 2)
	var sizes []int
	var ids []core.ID
	err := iter.ForEach(context.Background(), 0, func(batch []*core.Chunk) error {
		sizes = append(sizes, len(batch))
		for _, c := range batch {
			ids = append(ids, c.ID)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 1}, sizes)
	require.Len(t, ids, 5)
	for i, c := range chunks {
		assert.Equal(t, c.ID, ids[i])
	}
}

func TestChunkIterator_ExactMultipleEndsWithEmptyFetch(t *testing.T) {
	store, _ := setupTestStore(t, 4, "")

	calls := 0
	err := NewChunkIterator(store.Chunks, 2).ForEach(context.Background(), 0, func([]*core.Chunk) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestChunkIterator_StartsAfterCursor(t *testing.T) {
	store, chunks := setupTestStore(t, 4, "")

	var ids []core.ID
	err := NewChunkIterator(store.Chunks, 10).ForEach(context.Background(), chunks[1].ID, func(batch []*core.Chunk) error {
		for _, c := range batch {
			ids = append(ids, c.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{chunks[2].ID, chunks[3].ID}, ids)
}

func TestChunkIterator_EmptyStore(t *testing.T) {
	store, _ := setupTestStore(t, 0, "")

	called := false
	err := NewChunkIterator(store.Chunks, 0).ForEach(context.Background(), 0, func([]*core.Chunk) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestChunkIterator_StopsOnError(t *testing.T) {
	store, _ := setupTestStore(t, 6, "")
	boom := errors.New("boom")

	calls := 0
	err := NewChunkIterator(store.Chunks, 2).ForEach(context.Background(), 0, func([]*core.Chunk) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_ContextCanceled(t *testing.T) {
	store, _ := setupTestStore(t, 6, "")
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := NewChunkIterator(store.Chunks, 2).ForEach(ctx, 0, func([]*core.Chunk) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
