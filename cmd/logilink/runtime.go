package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/poiesic/logilink"
	"github.com/poiesic/logilink/config"
	"github.com/poiesic/logilink/ingestion"
	"github.com/poiesic/logilink/reasoning"
	"github.com/poiesic/logilink/search"
	"github.com/segmentio/encoding/json"
	"github.com/urfave/cli/v2"
)

// runtime bundles what every command needs: the resolved configuration,
// the open database and a request-scoped logger.
type runtime struct {
	cfg    *config.AppConfig
	db     *logilink.Database
	logger *slog.Logger
}

// openRuntime loads configuration, applies the --db override and opens the
// database. Callers must Close the runtime.
func openRuntime(c *cli.Context) (*runtime, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path := c.String("db"); path != "" {
		cfg.Storage.Path = path
	}

	opts := []logilink.DatabaseOption{logilink.WithAIConfig(cfg.AIConfig())}
	if cfg.Storage.InMemory {
		opts = append(opts, logilink.WithInMemory())
	}
	db, err := logilink.Open(cfg.Storage.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newRuntime(cfg, db, c.Command.Name), nil
}

func newRuntime(cfg *config.AppConfig, db *logilink.Database, command string) *runtime {
	return &runtime{
		cfg:    cfg,
		db:     db,
		logger: slog.Default().With("command", command, "request_id", uuid.NewString()),
	}
}

// Close closes the database.
func (r *runtime) Close() error {
	return r.db.Close()
}

// newPipeline builds an ingestion pipeline from the config. Options in
// extra are applied last.
func (r *runtime) newPipeline(extra ...ingestion.Option) (*ingestion.Pipeline, error) {
	policy := ingestion.RejectDuplicates
	if r.cfg.Ingestion.AllowDuplicates {
		policy = ingestion.AllowDuplicates
	}
	opts := []ingestion.Option{
		ingestion.WithPoolSize(r.cfg.Ingestion.PoolSize),
		ingestion.WithChunking(r.cfg.Chunking.Size, r.cfg.ChunkOverlap()),
		ingestion.WithDuplicatePolicy(policy),
		ingestion.WithLogger(r.logger.With("component", "ingestion")),
	}
	return r.db.NewIngestionPipeline(append(opts, extra...)...)
}

func (r *runtime) newSearcher() (*search.Searcher, error) {
	return r.db.NewSearcher(
		search.WithFailOpen(r.cfg.FailOpen()),
		search.WithLogger(r.logger.With("component", "search")),
	)
}

func (r *runtime) orchestratorOptions() []reasoning.Option {
	return []reasoning.Option{
		reasoning.WithMatchCount(r.cfg.Retrieval.MatchCount),
		reasoning.WithThreshold(r.cfg.Retrieval.Threshold),
		reasoning.WithDefaultConfidence(r.cfg.Reasoning.DefaultConfidence),
		reasoning.WithSchemaRetries(r.cfg.Reasoning.SchemaRetries),
		reasoning.WithLogger(r.logger.With("component", "reasoning")),
	}
}

func (r *runtime) newOrchestrator() (*reasoning.Orchestrator, error) {
	return r.db.NewOrchestrator(r.orchestratorOptions()...)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
