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

package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateShipment validates a Shipment according to domain rules.
//
// Validation rules:
//   - ID must be non-zero
//   - Status must not be empty
//   - DelayHours, when present, must not be negative
func ValidateShipment(s *Shipment) error {
	if s == nil {
		return fmt.Errorf("%w: shipment is nil", ErrInvalidShipment)
	}
	if s.ID == 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidShipment)
	}
	if strings.TrimSpace(s.Status) == "" {
		return fmt.Errorf("%w: status: %w", ErrInvalidShipment, ErrEmptyContent)
	}
	if s.DelayHours != nil && *s.DelayHours < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidShipment, ErrNegativeDelay)
	}
	return nil
}

// ValidateTrackingEvent validates a TrackingEvent.
// The timestamp must not be in the future.
func ValidateTrackingEvent(e *TrackingEvent) error {
	if e == nil {
		return fmt.Errorf("%w: event is nil", ErrInvalidEvent)
	}
	if e.ShipmentID == 0 {
		return fmt.Errorf("%w: shipment id is required", ErrInvalidEvent)
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("%w: description: %w", ErrInvalidEvent, ErrEmptyContent)
	}
	if !IsValidTimestamp(e.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, ErrInvalidTimestamp)
	}
	return nil
}

// ValidateContract validates a Contract.
func ValidateContract(c *Contract) error {
	if c == nil {
		return fmt.Errorf("%w: contract is nil", ErrInvalidContract)
	}
	if strings.TrimSpace(c.DocumentName) == "" {
		return fmt.Errorf("%w: document name: %w", ErrInvalidContract, ErrEmptyContent)
	}
	return nil
}

// ValidateChunk validates a Chunk before it is persisted.
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if c.ContractID == 0 {
		return fmt.Errorf("%w: contract id is required", ErrInvalidChunk)
	}
	if c.Ordinal < 0 {
		return fmt.Errorf("%w: ordinal %d is negative", ErrInvalidChunk, c.Ordinal)
	}
	if c.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	return nil
}

// ValidateRequest validates a ReasoningRequest.
// An empty language is allowed and resolves to DefaultLocale later.
func ValidateRequest(r *ReasoningRequest) error {
	if r == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query: %w", ErrInvalidRequest, ErrEmptyContent)
	}
	if r.Language != "" && !r.Language.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRequest, ErrUnsupportedLocale, r.Language)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}

// ClampUnit bounds v to [0, 1]. NaN maps to 0.
func ClampUnit(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
