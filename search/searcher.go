package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/storage"
)

const (
	// DefaultMatchCount is the number of hits requested when the caller has no preference.
	DefaultMatchCount = 5

	// DefaultThreshold is the minimum similarity for a hit to be returned.
	DefaultThreshold = 0.55
)

// Searcher embeds queries and matches them against stored chunk embeddings.
type Searcher struct {
	index    storage.VectorIndex
	embedder ai.Embedder
	model    string
	failOpen bool
	monitor  SearchMonitor
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithFailOpen selects the failure policy. When true (the default) every
// failure yields an empty result; when false failures wrap ErrRetrieval.
func WithFailOpen(failOpen bool) Option {
	return func(s *Searcher) error {
		s.failOpen = failOpen
		return nil
	}
}

// WithEmbeddingModel restricts matching to embeddings of one model.
// Default is empty, which matches every model.
func WithEmbeddingModel(model string) Option {
	return func(s *Searcher) error {
		s.model = strings.TrimSpace(model)
		return nil
	}
}

// WithMonitor sets the monitor used by Search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(index storage.VectorIndex, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		index:    index,
		embedder: embedder,
		failOpen: true,
		monitor:  &noopMonitor{},
		logger:   slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FailOpen reports whether the searcher absorbs failures.
func (s *Searcher) FailOpen() bool {
	return s.failOpen
}

// Search returns up to matchCount chunks with similarity at least threshold,
// highest first.
func (s *Searcher) Search(ctx context.Context, query string, matchCount int, threshold float64) ([]core.SearchHit, error) {
	return s.SearchWithMonitor(ctx, query, matchCount, threshold, s.monitor)
}

// SearchWithMonitor is Search with a per-call monitor.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, matchCount int, threshold float64, monitor SearchMonitor) ([]core.SearchHit, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query, matchCount, threshold)

	hits, err := s.search(ctx, query, matchCount, threshold, monitor)
	if err != nil {
		if !s.failOpen {
			s.logger.Error("retrieval failed", "err", err)
			return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
		}
		s.logger.Warn("retrieval degraded to empty result", "err", err)
		monitor.Degraded(err)
		hits = []core.SearchHit{}
	}

	monitor.Finish(hits)
	return hits, nil
}

func (s *Searcher) search(ctx context.Context, query string, matchCount int, threshold float64, monitor SearchMonitor) ([]core.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", storage.ErrInvalidQuery)
	}
	if matchCount <= 0 || threshold != threshold || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: matchCount %d, threshold %v", storage.ErrInvalidQuery, matchCount, threshold)
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: no vector returned", ai.ErrEmbeddingService)
	}
	monitor.AfterEmbedding(len(vector))

	hits, err := s.index.MatchChunks(ctx, storage.MatchQuery{
		Vector:     vector,
		MatchCount: matchCount,
		Threshold:  threshold,
		Model:      s.model,
	})
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []core.SearchHit{}
	}
	monitor.AfterMatch(hits)

	s.logger.Debug("retrieval complete", "hits", len(hits), "match_count", matchCount, "threshold", threshold)
	return hits, nil
}
