package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/lookup"
)

const (
	// NoShipmentMatched replaces the live-data block when no shipment was found.
	NoShipmentMatched = "No shipment matched."

	// NoCitationsFound replaces the citations block when retrieval returned nothing.
	NoCitationsFound = "No citations found."

	// StrictRetryInstruction is appended when a reply failed schema validation.
	StrictRetryInstruction = "Your previous reply did not match the required JSON schema. Reply with only the JSON object, with a non-empty answer field."
)

// RenderLiveData renders a one-line summary of the shipment snapshot.
func RenderLiveData(snap *lookup.Snapshot) string {
	if !snap.Found() {
		return NoShipmentMatched
	}
	s := snap.Shipment

	location := s.Location
	if strings.TrimSpace(location) == "" {
		location = "unknown"
	}
	delay := 0.0
	if s.DelayHours != nil {
		delay = *s.DelayHours
	}
	latest := "n/a"
	if snap.LatestEvent != nil && snap.LatestEvent.Description != "" {
		latest = snap.LatestEvent.Description
	}

	return fmt.Sprintf("Shipment %s is %s at %s with delay %s hours. Latest event: %s",
		s.DisplayRef(), s.Status, location, strconv.FormatFloat(delay, 'f', -1, 64), latest)
}

// RenderCitations renders one line per hit in the order given.
func RenderCitations(hits []core.SearchHit) string {
	if len(hits) == 0 {
		return NoCitationsFound
	}
	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = fmt.Sprintf("Doc %d (score %.2f): %s", h.ContractID, h.Similarity, h.Content)
	}
	return strings.Join(lines, "\n")
}
