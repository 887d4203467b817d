package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
)

// ContractRepository implements storage.ContractRepository for BadgerDB.
type ContractRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ContractRepository = (*ContractRepository)(nil)

// NewContractRepository creates a new ContractRepository.
func NewContractRepository(backend *Backend) (*ContractRepository, error) {
	idSeq, err := backend.GetSequence(contractIDSeq)
	if err != nil {
		return nil, err
	}
	return &ContractRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ContractRepository) Close() error {
	return r.idSeq.Release()
}

// AddContract stores a new contract.
func (r *ContractRepository) AddContract(ctx context.Context, contract *core.Contract) (*core.Contract, error) {
	if err := core.ValidateContract(contract); err != nil {
		return nil, err
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if contract.ID == 0 {
			id, err := nextID(tx, r.idSeq, makeContractKey)
			if err != nil {
				return err
			}
			contract.ID = id
		} else if exists, err := keyExists(tx, makeContractKey(contract.ID)); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("%w: contract %d", storage.ErrDuplicateKey, contract.ID)
		}

		contract.InsertedAt = time.Now().UTC()
		if err := writeRecord(tx, makeContractKey(contract.ID), contract); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// GetContract retrieves a contract by ID.
func (r *ContractRepository) GetContract(ctx context.Context, id core.ID) (*core.Contract, error) {
	var result *core.Contract
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord[core.Contract](tx, makeContractKey(id))
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

// ListContracts returns every contract ordered by ID.
func (r *ContractRepository) ListContracts(ctx context.Context) ([]*core.Contract, error) {
	var results []*core.Contract
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = scanPrefix[core.Contract](tx, contractPrefix)
		return err
	}, false)
	return results, err
}

// SetContractActive toggles whether the contract's chunks are searchable.
func (r *ContractRepository) SetContractActive(ctx context.Context, id core.ID, active bool) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeContractKey(id)
		contract, err := readRecord[core.Contract](tx, key)
		if err != nil {
			return err
		}
		if contract == nil {
			return storage.ErrNotFound
		}
		contract.Active = active
		if err := writeRecord(tx, key, contract); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteContract removes a contract, its chunks with their embeddings, and
// its document fingerprints in one transaction.
func (r *ContractRepository) DeleteContract(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeContractKey(id)
		exists, err := keyExists(tx, key)
		if err != nil {
			return err
		}
		if !exists {
			return storage.ErrNotFound
		}

		var doomed [][]byte
		prefix := makePartialChunkContractKey(id)
		for _, indexKey := range indexKeys(tx, prefix) {
			chunkID := idAt(indexKey, chunkContractPrefix, 2)
			for _, embKey := range indexKeys(tx, makePartialEmbeddingChunkKey(chunkID)) {
				doomed = append(doomed, makeEmbeddingKey(idAt(embKey, embeddingChunkPrefix, 1)), embKey)
			}
			doomed = append(doomed, makeChunkKey(chunkID), indexKey)
		}
		doomed = append(doomed, indexKeys(tx, makePartialFingerprintKey(id))...)
		doomed = append(doomed, key)

		for _, k := range doomed {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}
