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

import "errors"

// Domain validation errors
var (
	// ErrInvalidShipment indicates a Shipment failed validation.
	ErrInvalidShipment = errors.New("invalid shipment")

	// ErrInvalidEvent indicates a TrackingEvent failed validation.
	ErrInvalidEvent = errors.New("invalid tracking event")

	// ErrInvalidContract indicates a Contract failed validation.
	ErrInvalidContract = errors.New("invalid contract")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidRequest indicates a ReasoningRequest failed validation.
	ErrInvalidRequest = errors.New("invalid reasoning request")

	// ErrEmptyContent indicates a required text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrUnsupportedLocale indicates a language tag outside the supported set.
	ErrUnsupportedLocale = errors.New("unsupported locale")

	// ErrNegativeDelay indicates a negative delay duration.
	ErrNegativeDelay = errors.New("delay cannot be negative")
)
