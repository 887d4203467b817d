package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
)

// ShipmentRepository implements storage.ShipmentRepository for BadgerDB.
type ShipmentRepository struct {
	backend  *Backend
	idSeq    *badger.Sequence
	eventSeq *badger.Sequence
}

var _ storage.ShipmentRepository = (*ShipmentRepository)(nil)

// NewShipmentRepository creates a new ShipmentRepository.
func NewShipmentRepository(backend *Backend) (*ShipmentRepository, error) {
	idSeq, err := backend.GetSequence(shipmentIDSeq)
	if err != nil {
		return nil, err
	}
	eventSeq, err := backend.GetSequence(eventIDSeq)
	if err != nil {
		idSeq.Release()
		return nil, err
	}
	return &ShipmentRepository{
		backend:  backend,
		idSeq:    idSeq,
		eventSeq: eventSeq,
	}, nil
}

// Close releases the ID sequences.
func (r *ShipmentRepository) Close() error {
	err := r.idSeq.Release()
	if err2 := r.eventSeq.Release(); err == nil {
		err = err2
	}
	return err
}

// PutShipment inserts or replaces a shipment.
func (r *ShipmentRepository) PutShipment(ctx context.Context, shipment *core.Shipment) (*core.Shipment, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if shipment.ID == 0 {
			id, err := nextID(tx, r.idSeq, makeShipmentKey)
			if err != nil {
				return err
			}
			shipment.ID = id
		}
		if shipment.LastUpdatedAt.IsZero() {
			shipment.LastUpdatedAt = time.Now().UTC()
		}
		if err := core.ValidateShipment(shipment); err != nil {
			return err
		}
		if err := writeRecord(tx, makeShipmentKey(shipment.ID), shipment); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

// GetShipment retrieves a shipment by ID.
func (r *ShipmentRepository) GetShipment(ctx context.Context, id core.ID) (*core.Shipment, error) {
	var result *core.Shipment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord[core.Shipment](tx, makeShipmentKey(id))
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

// ListShipments returns every shipment ordered by ID.
func (r *ShipmentRepository) ListShipments(ctx context.Context) ([]*core.Shipment, error) {
	var results []*core.Shipment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = scanPrefix[core.Shipment](tx, shipmentPrefix)
		return err
	}, false)
	return results, err
}

// AddEvents appends tracking events and indexes them on the shipment timeline.
func (r *ShipmentRepository) AddEvents(ctx context.Context, events ...*core.TrackingEvent) ([]*core.TrackingEvent, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, event := range events {
			exists, err := keyExists(tx, makeShipmentKey(event.ShipmentID))
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: shipment %d", storage.ErrNotFound, event.ShipmentID)
			}

			if event.ID == 0 {
				id, err := nextID(tx, r.eventSeq, makeEventKey)
				if err != nil {
					return err
				}
				event.ID = id
			} else if exists, err := keyExists(tx, makeEventKey(event.ID)); err != nil {
				return err
			} else if exists {
				return fmt.Errorf("%w: event %d", storage.ErrDuplicateKey, event.ID)
			}

			if err := core.ValidateTrackingEvent(event); err != nil {
				return err
			}
			if err := writeRecord(tx, makeEventKey(event.ID), event); err != nil {
				return err
			}
			timeKey := makeEventTimeKey(event.ShipmentID, event.Timestamp, event.ID)
			if err := tx.Set(timeKey, storage.MarshalID(event.ID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// LatestEvent returns the newest event on the shipment timeline.
func (r *ShipmentRepository) LatestEvent(ctx context.Context, shipmentID core.ID) (*core.TrackingEvent, error) {
	var result *core.TrackingEvent
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialEventTimeKey(shipmentID)

		// Reverse iteration must seek past the last key with this prefix
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		iter.Seek(append(append([]byte{}, prefix...), 0xFF))
		if !iter.ValidForPrefix(prefix) {
			return nil
		}

		var eventID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			eventID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		var err error
		result, err = readRecord[core.TrackingEvent](tx, makeEventKey(eventID))
		return err
	}, false)
	return result, err
}
