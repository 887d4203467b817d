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

// Package logilink wires the hybrid reasoning pipeline over a badger store
// and an OpenAI-compatible provider.
//
// Open the database once at process start and build components from it:
//
//	db, err := logilink.Open("logilink.db", logilink.WithAIConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	orchestrator, err := db.NewOrchestrator()
//	answer, err := orchestrator.Answer(ctx, core.ReasoningRequest{Query: "where is LL-999001?"})
package logilink

import (
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/ai/openai"
	"github.com/poiesic/logilink/ingestion"
	"github.com/poiesic/logilink/lookup"
	"github.com/poiesic/logilink/prompt"
	"github.com/poiesic/logilink/reasoning"
	"github.com/poiesic/logilink/reembed"
	"github.com/poiesic/logilink/search"
	"github.com/poiesic/logilink/storage"
	"github.com/poiesic/logilink/storage/badger"
	"github.com/poiesic/logilink/voice"
)

// Database owns the store and the AI provider shared by every component.
type Database struct {
	store    *badger.Store
	provider ai.AIProvider
	aiConfig *ai.Config
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
}

// WithAIConfig sets the configuration used to build the OpenAI provider.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithProvider supplies a ready provider instead of building one.
// The Database takes ownership and closes it.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory opens a throwaway in-memory store; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// Open opens the store at path and initializes the AI provider.
// Configuration problems fail here, before any request is served.
func Open(path string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	store, err := badger.OpenStore(path, options.inMemory)
	if err != nil {
		return nil, errors.Join(err, provider.Close())
	}

	return &Database{
		store:    store,
		provider: provider,
		aiConfig: options.aiConfig,
		logger:   slog.Default().With("component", "logilink"),
	}, nil
}

// Close releases the provider and the store.
func (db *Database) Close() error {
	var errs []error
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing store", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Provider returns the AI provider.
func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// ShipmentRepository returns the shipment and tracking event repository.
func (db *Database) ShipmentRepository() storage.ShipmentRepository {
	return db.store.Shipments
}

// ContractRepository returns the contract repository.
func (db *Database) ContractRepository() storage.ContractRepository {
	return db.store.Contracts
}

// ChunkRepository returns the chunk and embedding repository.
func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.store.Chunks
}

// CheckpointRepository returns the checkpoint repository.
func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.store.Checkpoints
}

// NewIngestionPipeline creates a pipeline that tags embeddings with the
// provider's embedding model. Options given here take precedence.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithEmbeddingModel(db.provider.EmbeddingModel())}, opts...)
	return ingestion.NewPipeline(db.store.Contracts, db.store.Chunks, db.provider.Embedder(), opts...)
}

// NewSearcher creates a searcher restricted to the provider's embedding model.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithEmbeddingModel(db.provider.EmbeddingModel())}, opts...)
	return search.NewSearcher(db.store.Chunks, db.provider.Embedder(), opts...)
}

// NewLookup creates a live shipment lookup.
func (db *Database) NewLookup(opts ...lookup.Option) (*lookup.Service, error) {
	return lookup.NewService(db.store.Shipments, opts...)
}

// NewPromptBuilder creates a prompt builder honoring the configured word budget.
func (db *Database) NewPromptBuilder() (*prompt.Builder, error) {
	budget := db.aiConfig.WordBudget
	if budget <= 0 {
		budget = prompt.DefaultWordBudget
	}
	return prompt.NewBuilder(prompt.WithWordBudget(budget))
}

// NewOrchestrator creates an orchestrator over a fresh lookup and a
// fail-open searcher.
func (db *Database) NewOrchestrator(opts ...reasoning.Option) (*reasoning.Orchestrator, error) {
	live, err := db.NewLookup()
	if err != nil {
		return nil, err
	}
	searcher, err := db.NewSearcher(search.WithFailOpen(true))
	if err != nil {
		return nil, err
	}
	builder, err := db.NewPromptBuilder()
	if err != nil {
		return nil, err
	}
	opts = append([]reasoning.Option{reasoning.WithPromptBuilder(builder)}, opts...)
	return reasoning.NewOrchestrator(live, searcher, db.provider.Generator(), opts...)
}

// NewVoiceHandler creates a voice front door over a new orchestrator.
func (db *Database) NewVoiceHandler(opts ...reasoning.Option) (*voice.Handler, error) {
	orchestrator, err := db.NewOrchestrator(opts...)
	if err != nil {
		return nil, err
	}
	return voice.NewHandler(db.provider.Transcriber(), orchestrator)
}

// NewReembedder creates a reembedder targeting the provider's embedding
// model unless config names another one.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if config == nil {
		config = reembed.DefaultConfig()
	}
	if config.Model == "" {
		config.Model = db.provider.EmbeddingModel()
	}
	return reembed.NewReembedder(db.store.Chunks, db.store.Checkpoints, db.provider.Embedder(), config, progress)
}
