package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
)

const (
	defaultSequenceBandwidth = 100
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options
	logger := slog.Default().With("component", "badger")

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(filePath); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return err
		}
		info, err = os.Stat(path)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction; fn must commit it.
// The transaction is automatically discarded when fn returns.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// nextID draws the next free ID from seq. Zero is skipped, as are IDs whose
// primary key already exists (records inserted with explicit IDs).
func nextID(tx *badger.Txn, seq *badger.Sequence, keyFn func(core.ID) []byte) (core.ID, error) {
	for {
		n, err := seq.Next()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			continue
		}
		id := core.ID(n)
		exists, err := keyExists(tx, keyFn(id))
		if err != nil {
			return 0, err
		}
		if !exists {
			return id, nil
		}
	}
}

func keyExists(tx *badger.Txn, key []byte) (bool, error) {
	_, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// readRecord loads and decodes the value at key. Returns nil, nil if absent.
func readRecord[T storage.Record](tx *badger.Txn, key []byte) (*T, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var record *T
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.Unmarshal[T](val)
		return err
	})
	return record, err
}

func writeRecord[T storage.Record](tx *badger.Txn, key []byte, record *T) error {
	value, err := storage.Marshal(record)
	if err != nil {
		return err
	}
	return tx.Set(key, value)
}

// scanPrefix decodes every record stored under prefix in key order.
func scanPrefix[T storage.Record](tx *badger.Txn, prefix string) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var results []*T
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var record *T
		err := iter.Item().Value(func(val []byte) error {
			var err error
			record, err = storage.Unmarshal[T](val)
			return err
		})
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	return results, nil
}

// indexKeys collects the keys under prefix without fetching values.
func indexKeys(tx *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys
}

// MatchChunks performs a brute-force cosine scan over stored embeddings.
// Implements storage.VectorIndex interface.
func (b *Backend) MatchChunks(ctx context.Context, query storage.MatchQuery) ([]core.SearchHit, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	best := make(map[core.ID]float64)
	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.Unmarshal[core.EmbeddingRecord](val)
				return err
			})
			if err != nil {
				return err
			}
			if query.Model != "" && record.Model != query.Model {
				continue
			}
			if len(record.Vector) != len(query.Vector) {
				b.logger.Debug("skipping embedding with mismatched dimensions",
					"embedding_id", record.ID, "dims", len(record.Vector), "want", len(query.Vector))
				continue
			}

			similarity := core.ClampUnit(cosineSimilarity(query.Vector, record.Vector))
			if similarity < query.Threshold {
				continue
			}
			if prev, ok := best[record.ChunkID]; !ok || similarity > prev {
				best[record.ChunkID] = similarity
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	hits := make([]core.SearchHit, 0, len(best))
	err = b.WithTx(func(tx *badger.Txn) error {
		active := make(map[core.ID]bool)
		for chunkID, similarity := range best {
			chunk, err := readRecord[core.Chunk](tx, makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			isActive, seen := active[chunk.ContractID]
			if !seen {
				contract, err := readRecord[core.Contract](tx, makeContractKey(chunk.ContractID))
				if err != nil {
					return err
				}
				isActive = contract != nil && contract.Active
				active[chunk.ContractID] = isActive
			}
			if !isActive {
				continue
			}
			hits = append(hits, core.SearchHit{
				ChunkID:    chunk.ID,
				ContractID: chunk.ContractID,
				Content:    chunk.Content,
				Metadata:   chunk.Metadata,
				Similarity: similarity,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending, chunk ID ascending on ties
	slices.SortFunc(hits, func(a, b core.SearchHit) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		case a.ChunkID < b.ChunkID:
			return -1
		case a.ChunkID > b.ChunkID:
			return 1
		}
		return 0
	})

	if len(hits) > query.MatchCount {
		hits = hits[:query.MatchCount]
	}
	return hits, nil
}

// cosineSimilarity returns the cosine of the angle between a and b,
// or 0 when either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
