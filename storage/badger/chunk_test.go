package badger

import (
	"context"
	"testing"

	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddChunk_RequiresContract(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Chunks.AddChunk(context.Background(), &core.Chunk{ContractID: 99, Content: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddChunk_Invalid(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Chunks.AddChunk(context.Background(), &core.Chunk{ContractID: 1})
	assert.ErrorIs(t, err, core.ErrInvalidChunk)
}

func TestListChunks_OrderedByOrdinal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c := addContract(t, store, "A", true)
	other := addContract(t, store, "B", true)

	for _, ord := range []int{2, 0, 1} {
		_, err := store.Chunks.AddChunk(ctx, &core.Chunk{ContractID: c.ID, Ordinal: ord, Content: "part"})
		require.NoError(t, err)
	}
	_, err := store.Chunks.AddChunk(ctx, &core.Chunk{ContractID: other.ID, Content: "elsewhere"})
	require.NoError(t, err)

	chunks, err := store.Chunks.ListChunks(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
		assert.Equal(t, c.ID, ch.ContractID)
	}
}

func TestListChunksAfter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c := addContract(t, store, "A", true)

	var ids []core.ID
	for i := 0; i < 5; i++ {
		ch, err := store.Chunks.AddChunk(ctx, &core.Chunk{ContractID: c.ID, Ordinal: i, Content: "part"})
		require.NoError(t, err)
		ids = append(ids, ch.ID)
	}

	page, err := store.Chunks.ListChunksAfter(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[0], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	page, err = store.Chunks.ListChunksAfter(ctx, page[1].ID, 10)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, ids[4], page[2].ID)

	page, err = store.Chunks.ListChunksAfter(ctx, ids[4], 10)
	require.NoError(t, err)
	assert.Empty(t, page)

	_, err = store.Chunks.ListChunksAfter(ctx, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestAddEmbedding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c := addContract(t, store, "A", true)
	ch, err := store.Chunks.AddChunk(ctx, &core.Chunk{ContractID: c.ID, Content: "part"})
	require.NoError(t, err)

	t.Run("unknown chunk", func(t *testing.T) {
		_, err := store.Chunks.AddEmbedding(ctx, &core.EmbeddingRecord{ChunkID: 999, Vector: []float32{1}, Model: "m"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("empty vector", func(t *testing.T) {
		_, err := store.Chunks.AddEmbedding(ctx, &core.EmbeddingRecord{ChunkID: ch.ID, Model: "m"})
		assert.Error(t, err)
	})

	t.Run("rows accumulate per model", func(t *testing.T) {
		for _, model := range []string{"v2", "v1", "v2"} {
			rec, err := store.Chunks.AddEmbedding(ctx, &core.EmbeddingRecord{ChunkID: ch.ID, Vector: []float32{1, 0}, Model: model})
			require.NoError(t, err)
			assert.NotZero(t, rec.ID)
		}
		models, err := store.Chunks.EmbeddingModels(ctx, ch.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"v1", "v2"}, models)
	})
}

func TestPruneEmbeddings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c := addContract(t, store, "A", true)
	ch := addEmbeddedChunk(t, store, c.ID, 0, "part", "old", []float32{1, 0})
	_, err := store.Chunks.AddEmbedding(ctx, &core.EmbeddingRecord{ChunkID: ch.ID, Vector: []float32{1, 0}, Model: "new"})
	require.NoError(t, err)

	removed, err := store.Chunks.PruneEmbeddings(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	models, err := store.Chunks.EmbeddingModels(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, models)

	hits, err := store.Chunks.MatchChunks(ctx, storage.MatchQuery{Vector: []float32{1, 0}, MatchCount: 5, Threshold: 0.5, Model: "old"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFingerprints(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	fp := core.Fingerprint("Rate card 2025")

	seen, err := store.Chunks.HasFingerprint(ctx, 1, fp)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Chunks.RecordFingerprint(ctx, 1, fp, "rates.md"))

	seen, err = store.Chunks.HasFingerprint(ctx, 1, fp)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = store.Chunks.HasFingerprint(ctx, 2, fp)
	require.NoError(t, err)
	assert.False(t, seen, "fingerprints are scoped per contract")
}

func TestDeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c := addContract(t, store, "A", true)
	addChunk := func(doc string, ordinal int) *core.Chunk {
		ch, err := store.Chunks.AddChunk(ctx, &core.Chunk{
			ContractID: c.ID,
			Ordinal:    ordinal,
			Content:    doc + " part",
			Metadata:   map[string]any{core.ChunkDocumentKey: doc},
		})
		require.NoError(t, err)
		_, err = store.Chunks.AddEmbedding(ctx, &core.EmbeddingRecord{ChunkID: ch.ID, Vector: []float32{1, 0}, Model: "m"})
		require.NoError(t, err)
		return ch
	}

	old := addChunk("msa.md", 0)
	rates := addChunk("rates.md", 0)
	require.NoError(t, store.Chunks.RecordFingerprint(ctx, c.ID, 11, "msa.md"))
	require.NoError(t, store.Chunks.RecordFingerprint(ctx, c.ID, 22, "rates.md"))
	current := addChunk("msa.md", 0)

	removed, err := store.Chunks.DeleteDocument(ctx, c.ID, "msa.md", current.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Chunks.GetChunk(ctx, old.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	models, err := store.Chunks.EmbeddingModels(ctx, old.ID)
	require.NoError(t, err)
	assert.Empty(t, models)

	chunks, err := store.Chunks.ListChunks(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.ElementsMatch(t, []core.ID{rates.ID, current.ID}, []core.ID{chunks[0].ID, chunks[1].ID})

	seen, err := store.Chunks.HasFingerprint(ctx, c.ID, 11)
	require.NoError(t, err)
	assert.False(t, seen)
	seen, err = store.Chunks.HasFingerprint(ctx, c.ID, 22)
	require.NoError(t, err)
	assert.True(t, seen)

	removed, err = store.Chunks.DeleteDocument(ctx, c.ID, "msa.md", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
