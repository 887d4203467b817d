package storage

import (
	"testing"
	"time"

	"github.com/poiesic/logilink/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"fingerprint ID", core.Fingerprint("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.Len(t, data, 8)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestMarshalID_SortsNumerically(t *testing.T) {
	assert.True(t, string(MarshalID(9)) < string(MarshalID(10)))
	assert.True(t, string(MarshalID(255)) < string(MarshalID(256)))
}

func TestUnmarshalID_Truncated(t *testing.T) {
	_, err := UnmarshalID([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestMarshalUnmarshalShipment(t *testing.T) {
	delay := 52.0
	contract := core.ID(7)
	in := &core.Shipment{
		ID:             999001,
		OrganizationID: "org-1",
		ExternalRef:    "LL-999001",
		Status:         "Customs Hold",
		Location:       "Frankfurt (FRA)",
		DelayHours:     &delay,
		LastUpdatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		ContractID:     &contract,
	}

	data, err := Marshal(in)
	require.NoError(t, err)
	out, err := Unmarshal[core.Shipment](data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMarshalUnmarshalEmbedding(t *testing.T) {
	in := &core.EmbeddingRecord{
		ID:         3,
		ChunkID:    9,
		Vector:     []float32{0.25, -0.5, 1},
		Model:      "text-embedding-3-large",
		InsertedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := Marshal(in)
	require.NoError(t, err)
	out, err := Unmarshal[core.EmbeddingRecord](data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUnmarshal_Invalid(t *testing.T) {
	_, err := Unmarshal[core.Chunk](nil)
	assert.ErrorIs(t, err, ErrTruncatedData)

	_, err = Unmarshal[core.Chunk]([]byte("{not json"))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMatchQueryValidate(t *testing.T) {
	valid := MatchQuery{Vector: []float32{1}, MatchCount: 5, Threshold: 0.55}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*MatchQuery)
	}{
		{"empty vector", func(q *MatchQuery) { q.Vector = nil }},
		{"zero count", func(q *MatchQuery) { q.MatchCount = 0 }},
		{"negative threshold", func(q *MatchQuery) { q.Threshold = -0.1 }},
		{"threshold above one", func(q *MatchQuery) { q.Threshold = 1.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			tt.mutate(&q)
			assert.ErrorIs(t, q.Validate(), ErrInvalidQuery)
		})
	}
}
