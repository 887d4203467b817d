package lookup

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
)

// Snapshot is the live state of one shipment.
// Both fields are nil when no shipment matched.
type Snapshot struct {
	Shipment    *core.Shipment
	LatestEvent *core.TrackingEvent
}

// Found reports whether the snapshot holds a shipment.
func (s *Snapshot) Found() bool {
	return s != nil && s.Shipment != nil
}

// LiveData merges the shipment with its latest event.
// Returns nil when no shipment matched.
func (s *Snapshot) LiveData() *core.LiveData {
	if !s.Found() {
		return nil
	}
	return &core.LiveData{
		Shipment:    *s.Shipment,
		LatestEvent: s.LatestEvent,
	}
}

// Service resolves shipment ids to live snapshots.
type Service struct {
	shipments storage.ShipmentRepository
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a lookup service over the shipment repository.
func NewService(shipments storage.ShipmentRepository, opts ...Option) (*Service, error) {
	if shipments == nil {
		return nil, ErrShipmentRepositoryRequired
	}
	s := &Service{
		shipments: shipments,
		logger:    slog.Default().With("component", "lookup"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Lookup fetches the shipment and its latest event.
//
// A nil or zero id yields an empty snapshot without any store call. An
// unknown id yields an empty snapshot and skips the event fetch.
func (s *Service) Lookup(ctx context.Context, id *core.ID) (*Snapshot, error) {
	if id == nil || *id == 0 {
		return &Snapshot{}, nil
	}

	shipment, err := s.shipments.GetShipment(ctx, *id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("shipment not found", "shipment_id", *id)
			return &Snapshot{}, nil
		}
		return nil, err
	}

	event, err := s.shipments.LatestEvent(ctx, shipment.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("shipment resolved", "shipment_id", shipment.ID, "status", shipment.Status, "has_event", event != nil)
	return &Snapshot{Shipment: shipment, LatestEvent: event}, nil
}
