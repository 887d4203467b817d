package badger

import "errors"

// Store bundles every repository over one backend.
type Store struct {
	Backend     *Backend
	Shipments   *ShipmentRepository
	Contracts   *ContractRepository
	Chunks      *ChunkRepository
	Checkpoints *CheckpointRepository
}

// OpenStore opens a backend at path and creates every repository on it.
// Caller must Close the store when done.
func OpenStore(path string, inMemory bool) (*Store, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	store := &Store{Backend: backend, Checkpoints: NewCheckpointRepository(backend)}
	if store.Shipments, err = NewShipmentRepository(backend); err != nil {
		return nil, errors.Join(err, store.Close())
	}
	if store.Contracts, err = NewContractRepository(backend); err != nil {
		return nil, errors.Join(err, store.Close())
	}
	if store.Chunks, err = NewChunkRepository(backend); err != nil {
		return nil, errors.Join(err, store.Close())
	}
	return store, nil
}

// Close releases the repository sequences and closes the backend.
func (s *Store) Close() error {
	var errs []error
	if s.Chunks != nil {
		errs = append(errs, s.Chunks.Close())
	}
	if s.Contracts != nil {
		errs = append(errs, s.Contracts.Close())
	}
	if s.Shipments != nil {
		errs = append(errs, s.Shipments.Close())
	}
	if s.Backend != nil && !s.Backend.IsClosed() {
		errs = append(errs, s.Backend.Close())
	}
	return errors.Join(errs...)
}
