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

package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/logilink/core"
)

const (
	shipmentPrefix       = "shp:"
	eventPrefix          = "evt:"
	eventTimePrefix      = "evtts:"
	contractPrefix       = "ctr:"
	chunkPrefix          = "chk:"
	chunkContractPrefix  = "chkctr:"
	embeddingPrefix      = "emb:"
	embeddingChunkPrefix = "embchk:"
	fingerprintPrefix    = "ctrfp:"
	checkpointPrefix     = "ckpt:"

	shipmentIDSeq  = "seq:shp"
	eventIDSeq     = "seq:evt"
	contractIDSeq  = "seq:ctr"
	chunkIDSeq     = "seq:chk"
	embeddingIDSeq = "seq:emb"
)

// compositeKey builds prefix followed by each part as 8 big-endian bytes,
// so lexicographic key order matches numeric order of the parts.
func compositeKey(prefix string, parts ...uint64) []byte {
	buf := make([]byte, len(prefix)+8*len(parts))
	offset := copy(buf, prefix)
	for _, p := range parts {
		binary.BigEndian.PutUint64(buf[offset:], p)
		offset += 8
	}
	return buf
}

// idAt reads the 8-byte ID at position index after prefix.
func idAt(key []byte, prefix string, index int) core.ID {
	offset := len(prefix) + 8*index
	if len(key) < offset+8 {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[offset:]))
}

// sortableTime maps a timestamp to an unsigned value that preserves order,
// including instants before the Unix epoch.
func sortableTime(t time.Time) uint64 {
	return uint64(t.UnixMicro()) ^ (1 << 63)
}

func makeShipmentKey(id core.ID) []byte {
	return compositeKey(shipmentPrefix, uint64(id))
}

func makeEventKey(id core.ID) []byte {
	return compositeKey(eventPrefix, uint64(id))
}

// makeEventTimeKey generates a composite key for the per-shipment event timeline.
// Format: prefix:shipmentID:timestamp:eventID
func makeEventTimeKey(shipmentID core.ID, timestamp time.Time, eventID core.ID) []byte {
	return compositeKey(eventTimePrefix, uint64(shipmentID), sortableTime(timestamp), uint64(eventID))
}

// makePartialEventTimeKey generates the prefix of one shipment's timeline.
func makePartialEventTimeKey(shipmentID core.ID) []byte {
	return compositeKey(eventTimePrefix, uint64(shipmentID))
}

func makeContractKey(id core.ID) []byte {
	return compositeKey(contractPrefix, uint64(id))
}

func makeChunkKey(id core.ID) []byte {
	return compositeKey(chunkPrefix, uint64(id))
}

// makeChunkContractKey indexes chunks by contract in ordinal order.
// Format: prefix:contractID:ordinal:chunkID
func makeChunkContractKey(contractID core.ID, ordinal int, chunkID core.ID) []byte {
	return compositeKey(chunkContractPrefix, uint64(contractID), uint64(ordinal), uint64(chunkID))
}

func makePartialChunkContractKey(contractID core.ID) []byte {
	return compositeKey(chunkContractPrefix, uint64(contractID))
}

func makeEmbeddingKey(id core.ID) []byte {
	return compositeKey(embeddingPrefix, uint64(id))
}

// makeEmbeddingChunkKey indexes embeddings by chunk.
// Format: prefix:chunkID:embeddingID
func makeEmbeddingChunkKey(chunkID, embeddingID core.ID) []byte {
	return compositeKey(embeddingChunkPrefix, uint64(chunkID), uint64(embeddingID))
}

func makePartialEmbeddingChunkKey(chunkID core.ID) []byte {
	return compositeKey(embeddingChunkPrefix, uint64(chunkID))
}

// makeFingerprintKey records a document fingerprint under its contract.
// Format: prefix:contractID:fingerprint
func makeFingerprintKey(contractID, fingerprint core.ID) []byte {
	return compositeKey(fingerprintPrefix, uint64(contractID), uint64(fingerprint))
}

func makePartialFingerprintKey(contractID core.ID) []byte {
	return compositeKey(fingerprintPrefix, uint64(contractID))
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(checkpointPrefix + processorType)
}
