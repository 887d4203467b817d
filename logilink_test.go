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

package logilink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/ai/mock"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/prompt"
	"github.com/poiesic/logilink/reasoning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDatabase(t *testing.T) (*Database, *mock.MockProvider) {
	t.Helper()
	provider := mock.NewMockProvider().(*mock.MockProvider)
	db, err := Open("", WithInMemory(), WithProvider(provider))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, provider
}

func TestOpen(t *testing.T) {
	t.Run("on disk with mock provider", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "db"), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		assert.NotNil(t, db.ShipmentRepository())
		assert.NotNil(t, db.ContractRepository())
		assert.NotNil(t, db.ChunkRepository())
		assert.NotNil(t, db.CheckpointRepository())
		assert.NotNil(t, db.Provider())
		assert.NoError(t, db.Close())
	})

	t.Run("missing credentials fail fast", func(t *testing.T) {
		db, err := Open("", WithInMemory())
		assert.ErrorIs(t, err, ai.ErrMissingAPIKey)
		assert.Nil(t, db)
	})

	t.Run("real provider with credentials", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithAPIKey("sk-test"), ai.WithHost("http://127.0.0.1:1"))
		db, err := Open("", WithInMemory(), WithAIConfig(cfg))
		require.NoError(t, err)
		assert.Equal(t, ai.DefaultEmbeddingModel, db.Provider().EmbeddingModel())
		assert.NoError(t, db.Close())
	})

	t.Run("invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))

		db, err := Open(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, _ := openTestDatabase(t)

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	pipeline.Release()

	searcher, err := db.NewSearcher()
	require.NoError(t, err)
	assert.True(t, searcher.FailOpen())

	_, err = db.NewLookup()
	require.NoError(t, err)

	builder, err := db.NewPromptBuilder()
	require.NoError(t, err)
	assert.Equal(t, prompt.DefaultWordBudget, builder.WordBudget())

	_, err = db.NewOrchestrator(reasoning.WithSchemaRetries(1))
	require.NoError(t, err)

	_, err = db.NewVoiceHandler()
	require.NoError(t, err)

	r, err := db.NewReembedder(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func seedCustomsHold(t *testing.T, db *Database) core.ID {
	t.Helper()
	ctx := context.Background()

	delay := 52.0
	_, err := db.ShipmentRepository().PutShipment(ctx, &core.Shipment{
		ID: 999001, OrganizationID: "demo-org", ExternalRef: "LL-999001",
		Status: "Customs Hold", Location: "Frankfurt (FRA)", DelayHours: &delay,
	})
	require.NoError(t, err)
	_, err = db.ShipmentRepository().AddEvents(ctx, &core.TrackingEvent{
		ShipmentID: 999001, Code: "CZ01",
		Description: "Shipment held in customs inspection at FRA",
		Timestamp:   time.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)

	contract, err := db.ContractRepository().AddContract(ctx, &core.Contract{
		OrganizationID: "demo-org", DocumentName: "Master Services Agreement", Active: true,
	})
	require.NoError(t, err)
	return contract.ID
}

func TestEndToEnd_IngestThenAnswer(t *testing.T) {
	ctx := context.Background()
	db, provider := openTestDatabase(t)
	contractID := seedCustomsHold(t, db)

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	text := strings.Repeat("Customs inspection delays beyond 48 hours are the consignee's liability. ", 30)
	result, err := pipeline.Ingest(ctx, contractID, "", text)
	require.NoError(t, err)
	assert.True(t, result.Complete())
	assert.Equal(t, "Uploaded document", result.DocumentName)

	_, err = pipeline.Ingest(ctx, contractID, "again", text)
	assert.Error(t, err, "duplicate documents are rejected")

	orchestrator, err := db.NewOrchestrator()
	require.NoError(t, err)

	id := core.ID(999001)
	answer, err := orchestrator.Answer(ctx, core.ReasoningRequest{Query: "who pays for the customs delay?", ShipmentID: &id})
	require.NoError(t, err)

	assert.Equal(t, mock.DefaultAnswer, answer.Answer)
	assert.Equal(t, core.LocaleEnglish, answer.Language)
	require.NotNil(t, answer.LiveData)
	assert.Equal(t, "Customs Hold", answer.LiveData.Status)
	assert.Equal(t, "CZ01", answer.LiveData.LatestEvent.Code)
	assert.Equal(t, reasoning.DefaultConfidence, answer.Confidence)
	assert.Equal(t, reasoning.DefaultTrace, answer.Trace)
	assert.LessOrEqual(t, len(answer.Citations), 5)
	for _, hit := range answer.Citations {
		assert.Equal(t, contractID, hit.ContractID)
		assert.GreaterOrEqual(t, hit.Similarity, 0.55)
		assert.LessOrEqual(t, hit.Similarity, 1.0)
	}

	msgs := provider.GetMockGenerator().LastMessages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "Shipment LL-999001 is Customs Hold at Frankfurt (FRA) with delay 52 hours.")
}

func TestEndToEnd_UnknownShipmentEmptyCorpus(t *testing.T) {
	db, _ := openTestDatabase(t)

	orchestrator, err := db.NewOrchestrator()
	require.NoError(t, err)

	id := core.ID(4242)
	answer, err := orchestrator.Answer(context.Background(), core.ReasoningRequest{Query: "where is my shipment", ShipmentID: &id})
	require.NoError(t, err)
	assert.Nil(t, answer.LiveData)
	assert.NotNil(t, answer.Citations)
	assert.Empty(t, answer.Citations)
	assert.Equal(t, 0.72, answer.Confidence)
	assert.Len(t, answer.Trace, 3)
}

func TestEndToEnd_Voice(t *testing.T) {
	db, _ := openTestDatabase(t)
	seedCustomsHold(t, db)

	handler, err := db.NewVoiceHandler()
	require.NoError(t, err)

	result, err := handler.HandleAudio(context.Background(), []byte("is my freight stuck in customs"), core.LocaleHindi)
	require.NoError(t, err)
	assert.Equal(t, "is my freight stuck in customs", result.Transcription.Text)
	assert.Equal(t, core.LocaleHindi, result.Answer.Language)
}

func TestEndToEnd_ReembedToNewModel(t *testing.T) {
	ctx := context.Background()
	db, provider := openTestDatabase(t)
	contractID := seedCustomsHold(t, db)

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()
	_, err = pipeline.Ingest(ctx, contractID, "MSA", "Demurrage accrues after five free days at the destination port.")
	require.NoError(t, err)

	provider.SetEmbeddingModel("mock-embedding-v2")
	r, err := db.NewReembedder(nil, nil)
	require.NoError(t, err)
	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mock-embedding-v2", summary.Model)
	assert.Equal(t, 1, summary.Embedded)

	chunks, err := db.ChunkRepository().ListChunks(ctx, contractID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	models, err := db.ChunkRepository().EmbeddingModels(ctx, chunks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{mock.DefaultEmbeddingModel, "mock-embedding-v2"}, models)
}
