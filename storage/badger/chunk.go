package badger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
)

// ChunkRepository implements storage.ChunkRepository and storage.VectorIndex for BadgerDB.
type ChunkRepository struct {
	backend      *Backend
	idSeq        *badger.Sequence
	embeddingSeq *badger.Sequence
}

var (
	_ storage.ChunkRepository = (*ChunkRepository)(nil)
	_ storage.VectorIndex     = (*ChunkRepository)(nil)
)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}
	embeddingSeq, err := backend.GetSequence(embeddingIDSeq)
	if err != nil {
		idSeq.Release()
		return nil, err
	}
	return &ChunkRepository{
		backend:      backend,
		idSeq:        idSeq,
		embeddingSeq: embeddingSeq,
	}, nil
}

// Close releases the ID sequences.
func (r *ChunkRepository) Close() error {
	err := r.idSeq.Release()
	if err2 := r.embeddingSeq.Release(); err == nil {
		err = err2
	}
	return err
}

// MatchChunks delegates to the backend.
func (r *ChunkRepository) MatchChunks(ctx context.Context, query storage.MatchQuery) ([]core.SearchHit, error) {
	return r.backend.MatchChunks(ctx, query)
}

// AddChunk stores a new chunk and indexes it under its contract.
func (r *ChunkRepository) AddChunk(ctx context.Context, chunk *core.Chunk) (*core.Chunk, error) {
	if err := core.ValidateChunk(chunk); err != nil {
		return nil, err
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		exists, err := keyExists(tx, makeContractKey(chunk.ContractID))
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: contract %d", storage.ErrNotFound, chunk.ContractID)
		}

		id, err := nextID(tx, r.idSeq, makeChunkKey)
		if err != nil {
			return err
		}
		chunk.ID = id
		chunk.InsertedAt = time.Now().UTC()

		if err := writeRecord(tx, makeChunkKey(chunk.ID), chunk); err != nil {
			return err
		}
		indexKey := makeChunkContractKey(chunk.ContractID, chunk.Ordinal, chunk.ID)
		if err := tx.Set(indexKey, storage.MarshalID(chunk.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// GetChunk retrieves a chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord[core.Chunk](tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListChunks returns a contract's chunks ordered by ordinal.
func (r *ChunkRepository) ListChunks(ctx context.Context, contractID core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, indexKey := range indexKeys(tx, makePartialChunkContractKey(contractID)) {
			chunk, err := readRecord[core.Chunk](tx, makeChunkKey(idAt(indexKey, chunkContractPrefix, 2)))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListChunksAfter returns up to limit chunks with ID greater than cursor.
func (r *ChunkRepository) ListChunksAfter(ctx context.Context, cursor core.ID, limit int) ([]*core.Chunk, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeChunkKey(cursor + 1)); iter.Valid() && len(results) < limit; iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.Unmarshal[core.Chunk](val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, chunk)
		}
		return nil
	}, false)
	return results, err
}

// CountChunks returns the total number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	var count int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		count = len(indexKeys(tx, []byte(chunkPrefix)))
		return nil
	}, false)
	return count, err
}

// AddEmbedding stores a new embedding row for an existing chunk.
func (r *ChunkRepository) AddEmbedding(ctx context.Context, record *core.EmbeddingRecord) (*core.EmbeddingRecord, error) {
	if len(record.Vector) == 0 {
		return nil, fmt.Errorf("%w: embedding vector is empty", storage.ErrInvalidQuery)
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		exists, err := keyExists(tx, makeChunkKey(record.ChunkID))
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: chunk %d", storage.ErrNotFound, record.ChunkID)
		}

		id, err := nextID(tx, r.embeddingSeq, makeEmbeddingKey)
		if err != nil {
			return err
		}
		record.ID = id
		record.InsertedAt = time.Now().UTC()

		if err := writeRecord(tx, makeEmbeddingKey(record.ID), record); err != nil {
			return err
		}
		if err := tx.Set(makeEmbeddingChunkKey(record.ChunkID, record.ID), []byte(record.Model)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// EmbeddingModels returns the distinct model names embedded for a chunk, sorted.
func (r *ChunkRepository) EmbeddingModels(ctx context.Context, chunkID core.ID) ([]string, error) {
	var models []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEmbeddingChunkKey(chunkID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			val, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			models = append(models, string(val))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	slices.Sort(models)
	return slices.Compact(models), nil
}

// PruneEmbeddings deletes every embedding whose model differs from keepModel.
func (r *ChunkRepository) PruneEmbeddings(ctx context.Context, keepModel string) (int, error) {
	removed := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingChunkPrefix)
		iter := tx.NewIterator(opts)

		var doomed [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				iter.Close()
				return err
			}
			if string(val) == keepModel {
				continue
			}
			key := item.KeyCopy(nil)
			doomed = append(doomed, makeEmbeddingKey(idAt(key, embeddingChunkPrefix, 1)), key)
		}
		iter.Close()

		for _, k := range doomed {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		removed = len(doomed) / 2
		return tx.Commit()
	}, true)
	return removed, err
}

// HasFingerprint reports whether a document fingerprint was recorded for the contract.
func (r *ChunkRepository) HasFingerprint(ctx context.Context, contractID, fingerprint core.ID) (bool, error) {
	var exists bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		exists, err = keyExists(tx, makeFingerprintKey(contractID, fingerprint))
		return err
	}, false)
	return exists, err
}

// RecordFingerprint marks a document as ingested for the contract. The
// document name is kept as the key's value so DeleteDocument can find it.
func (r *ChunkRepository) RecordFingerprint(ctx context.Context, contractID, fingerprint core.ID, documentName string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFingerprintKey(contractID, fingerprint), []byte(documentName)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteDocument removes one document's older chunks, their embeddings and
// the document's fingerprints in one transaction.
func (r *ChunkRepository) DeleteDocument(ctx context.Context, contractID core.ID, documentName string, before core.ID) (int, error) {
	removed := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var doomed [][]byte
		for _, indexKey := range indexKeys(tx, makePartialChunkContractKey(contractID)) {
			chunkID := idAt(indexKey, chunkContractPrefix, 2)
			if before != 0 && chunkID >= before {
				continue
			}
			chunk, err := readRecord[core.Chunk](tx, makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			if chunk == nil || chunk.DocumentName() != documentName {
				continue
			}
			for _, embKey := range indexKeys(tx, makePartialEmbeddingChunkKey(chunkID)) {
				doomed = append(doomed, makeEmbeddingKey(idAt(embKey, embeddingChunkPrefix, 1)), embKey)
			}
			doomed = append(doomed, makeChunkKey(chunkID), indexKey)
			removed++
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialFingerprintKey(contractID)
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				iter.Close()
				return err
			}
			if string(val) == documentName {
				doomed = append(doomed, item.KeyCopy(nil))
			}
		}
		iter.Close()

		for _, k := range doomed {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return removed, nil
}
