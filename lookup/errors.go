package lookup

import "errors"

var (
	// ErrShipmentRepositoryRequired is returned when NewService receives a nil repository.
	ErrShipmentRepositoryRequired = errors.New("shipment repository is required")
)
