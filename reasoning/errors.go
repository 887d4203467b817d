package reasoning

import (
	"errors"

	"github.com/poiesic/logilink/core"
)

var (
	// ErrLookupRequired is returned when NewOrchestrator receives a nil lookup.
	ErrLookupRequired = errors.New("live lookup is required")

	// ErrRetrieverRequired is returned when NewOrchestrator receives a nil retriever.
	ErrRetrieverRequired = errors.New("retriever is required")

	// ErrGeneratorRequired is returned when NewOrchestrator receives a nil generator.
	ErrGeneratorRequired = errors.New("generator is required")

	// ErrInvalidRequest indicates an empty query or unsupported language.
	ErrInvalidRequest = core.ErrInvalidRequest

	// ErrLiveData indicates the live shipment lookup failed.
	ErrLiveData = errors.New("failed to fetch shipment data")

	// ErrGeneration indicates the model call failed or its reply violated the schema.
	ErrGeneration = errors.New("LLM call failed")
)
