package main

import (
	"context"
	"testing"

	"github.com/poiesic/logilink/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed_Default(t *testing.T) {
	seed, err := parseSeed(defaultSeed)
	require.NoError(t, err)

	require.Len(t, seed.Contracts, 1)
	contract := seed.Contracts[0]
	assert.Equal(t, core.ID(1001), contract.ID)
	assert.True(t, contract.Active)
	require.Len(t, contract.Documents, 1)
	assert.Contains(t, contract.Documents[0].Text, "Customs and regulatory holds")

	require.Len(t, seed.Shipments, 2)
	hold := seed.Shipments[0]
	assert.Equal(t, core.ID(999001), hold.ID)
	assert.Equal(t, "LL-999001", hold.ExternalRef)
	assert.Equal(t, "Customs Hold", hold.Status)
	assert.Equal(t, "Frankfurt (FRA)", hold.Location)
	require.NotNil(t, hold.DelayHours)
	assert.Equal(t, 52.0, *hold.DelayHours)
	require.NotNil(t, hold.ContractID)
	assert.Equal(t, core.ID(1001), *hold.ContractID)
	assert.Nil(t, seed.Shipments[1].DelayHours)

	require.Len(t, seed.Events, 2)
	assert.Equal(t, "CZ01", seed.Events[0].Code)
	assert.False(t, seed.Events[0].Timestamp.IsZero())
}

func TestParseSeed_Invalid(t *testing.T) {
	_, err := parseSeed([]byte("shipments: {not: [a list"))
	assert.Error(t, err)
}

func TestApplySeed(t *testing.T) {
	ctx := context.Background()
	rt, _ := openTestRuntime(t)
	pipeline, err := rt.newPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	seed, err := parseSeed(defaultSeed)
	require.NoError(t, err)

	report, err := applySeed(ctx, rt.db.ContractRepository(), rt.db.ShipmentRepository(), pipeline, seed)
	require.NoError(t, err)
	assert.Equal(t, &seedReport{Contracts: 1, Documents: 1, Shipments: 2, Events: 2}, report)

	chunks, err := rt.db.ChunkRepository().ListChunks(ctx, 1001)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	latest, err := rt.db.ShipmentRepository().LatestEvent(ctx, 999001)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "Shipment held in customs inspection at FRA", latest.Description)

	t.Run("rerun skips existing records", func(t *testing.T) {
		seed, err := parseSeed(defaultSeed)
		require.NoError(t, err)

		report, err := applySeed(ctx, rt.db.ContractRepository(), rt.db.ShipmentRepository(), pipeline, seed)
		require.NoError(t, err)
		assert.Equal(t, &seedReport{Shipments: 2, Skipped: 4}, report)

		again, err := rt.db.ChunkRepository().ListChunks(ctx, 1001)
		require.NoError(t, err)
		assert.Len(t, again, len(chunks))
	})

	t.Run("events for unknown shipments fail", func(t *testing.T) {
		bad := &seedFile{Events: []core.TrackingEvent{{
			ShipmentID:  424242,
			Description: "lost",
			Timestamp:   latest.Timestamp,
		}}}
		_, err := applySeed(ctx, rt.db.ContractRepository(), rt.db.ShipmentRepository(), pipeline, bad)
		assert.Error(t, err)
	})
}

func TestSeededShipmentAnswers(t *testing.T) {
	ctx := context.Background()
	rt, provider := openTestRuntime(t)
	pipeline, err := rt.newPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	seed, err := parseSeed(defaultSeed)
	require.NoError(t, err)
	_, err = applySeed(ctx, rt.db.ContractRepository(), rt.db.ShipmentRepository(), pipeline, seed)
	require.NoError(t, err)

	orchestrator, err := rt.newOrchestrator()
	require.NoError(t, err)
	req, err := buildRequest("who pays for the customs delay?", 999001, "")
	require.NoError(t, err)

	answer, err := orchestrator.Answer(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, answer.LiveData)
	assert.Equal(t, "Customs Hold", answer.LiveData.Status)

	msgs := provider.GetMockGenerator().LastMessages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content,
		"Shipment LL-999001 is Customs Hold at Frankfurt (FRA) with delay 52 hours. Latest event: Shipment held in customs inspection at FRA")
}
