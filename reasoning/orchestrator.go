package reasoning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/lookup"
	"github.com/poiesic/logilink/prompt"
	"github.com/poiesic/logilink/search"
)

// DefaultConfidence is reported when the model omits a confidence.
const DefaultConfidence = 0.72

// DefaultTrace is reported when the model omits a trace.
var DefaultTrace = []string{"structured lookup", "vector search", "LLM synthesis"}

// LiveLookup resolves a shipment id to its live snapshot.
type LiveLookup interface {
	Lookup(ctx context.Context, id *core.ID) (*lookup.Snapshot, error)
}

// Retriever finds contract chunks similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string, matchCount int, threshold float64) ([]core.SearchHit, error)
}

var (
	_ LiveLookup = (*lookup.Service)(nil)
	_ Retriever  = (*search.Searcher)(nil)
)

// Orchestrator answers reasoning requests.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	lookup            LiveLookup
	retriever         Retriever
	generator         ai.Generator
	builder           *prompt.Builder
	matchCount        int
	threshold         float64
	defaultConfidence float64
	schemaRetries     int
	logger            *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithMatchCount sets how many chunks retrieval asks for.
// Default is search.DefaultMatchCount.
func WithMatchCount(n int) Option {
	return func(o *Orchestrator) error {
		if n <= 0 {
			return fmt.Errorf("match count must be positive, got %d", n)
		}
		o.matchCount = n
		return nil
	}
}

// WithThreshold sets the minimum similarity for retrieved chunks.
// Default is search.DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(o *Orchestrator) error {
		if threshold != threshold || threshold < 0 || threshold > 1 {
			return fmt.Errorf("threshold must be within [0,1], got %v", threshold)
		}
		o.threshold = threshold
		return nil
	}
}

// WithDefaultConfidence sets the confidence reported when the model omits one.
func WithDefaultConfidence(confidence float64) Option {
	return func(o *Orchestrator) error {
		if confidence != confidence || confidence < 0 || confidence > 1 {
			return fmt.Errorf("default confidence must be within [0,1], got %v", confidence)
		}
		o.defaultConfidence = confidence
		return nil
	}
}

// WithSchemaRetries sets how many extra generation attempts follow a reply
// that violates the output schema. Default is 0.
func WithSchemaRetries(n int) Option {
	return func(o *Orchestrator) error {
		if n < 0 {
			return fmt.Errorf("schema retries cannot be negative, got %d", n)
		}
		o.schemaRetries = n
		return nil
	}
}

// WithPromptBuilder replaces the default prompt builder.
func WithPromptBuilder(builder *prompt.Builder) Option {
	return func(o *Orchestrator) error {
		if builder != nil {
			o.builder = builder
		}
		return nil
	}
}

// NewOrchestrator creates an orchestrator over the given stages.
func NewOrchestrator(live LiveLookup, retriever Retriever, generator ai.Generator, opts ...Option) (*Orchestrator, error) {
	if live == nil {
		return nil, ErrLookupRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	o := &Orchestrator{
		lookup:            live,
		retriever:         retriever,
		generator:         generator,
		matchCount:        search.DefaultMatchCount,
		threshold:         search.DefaultThreshold,
		defaultConfidence: DefaultConfidence,
		logger:            slog.Default().With("component", "reasoning"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.builder == nil {
		builder, err := prompt.NewBuilder()
		if err != nil {
			return nil, err
		}
		o.builder = builder
	}
	return o, nil
}

// Answer runs the pipeline for one request.
func (o *Orchestrator) Answer(ctx context.Context, req core.ReasoningRequest) (*core.ReasoningAnswer, error) {
	if err := core.ValidateRequest(&req); err != nil {
		return nil, err
	}
	language := req.Language.Resolve()
	logger := o.logger.With("language", language)
	start := time.Now()

	snap, err := o.lookup.Lookup(ctx, req.ShipmentID)
	if err != nil {
		logger.Error("live lookup failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrLiveData, err)
	}
	if snap == nil {
		snap = &lookup.Snapshot{}
	}

	hits := o.retrieve(ctx, logger, WidenQuery(req.Query, snap))

	messages := o.builder.Build(prompt.Input{
		Query:     req.Query,
		Language:  language,
		LiveData:  prompt.RenderLiveData(snap),
		Citations: prompt.RenderCitations(hits),
	})

	reply, err := o.generate(ctx, logger, messages)
	if err != nil {
		return nil, err
	}

	answer := o.shape(reply, language, snap, hits)
	logger.Info("answer ready",
		"shipment_found", snap.Found(),
		"citations", len(hits),
		"confidence", answer.Confidence,
		"elapsed", time.Since(start))
	return answer, nil
}

// WidenQuery appends the shipment status and location to the query so
// retrieval leans toward clauses relevant to the shipment's situation.
func WidenQuery(query string, snap *lookup.Snapshot) string {
	parts := []string{strings.TrimSpace(query)}
	if snap.Found() {
		for _, extra := range []string{snap.Shipment.Status, snap.Shipment.Location} {
			if extra = strings.TrimSpace(extra); extra != "" {
				parts = append(parts, extra)
			}
		}
	}
	return strings.Join(parts, " ")
}

func (o *Orchestrator) retrieve(ctx context.Context, logger *slog.Logger, query string) []core.SearchHit {
	hits, err := o.retriever.Search(ctx, query, o.matchCount, o.threshold)
	if err != nil {
		logger.Warn("retrieval failed, continuing without citations", "err", err)
		return []core.SearchHit{}
	}
	if hits == nil {
		return []core.SearchHit{}
	}
	return hits
}

func (o *Orchestrator) generate(ctx context.Context, logger *slog.Logger, messages []ai.Message) (*ai.Reply, error) {
	var lastViolation *ai.SchemaViolation
	for attempt := 0; attempt <= o.schemaRetries; attempt++ {
		if attempt == 1 {
			messages = append(messages[:len(messages):len(messages)], ai.Message{Role: ai.RoleUser, Content: prompt.StrictRetryInstruction})
		}
		decoded, err := o.generator.Generate(ctx, messages)
		if err != nil {
			logger.Error("generation failed", "attempt", attempt, "err", err)
			return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
		}
		if decoded.OK() {
			return decoded.Reply, nil
		}
		lastViolation = decoded.Violation
		if lastViolation == nil {
			lastViolation = &ai.SchemaViolation{Err: errors.New("empty decode result")}
		}
		logger.Warn("reply violated output schema", "attempt", attempt, "err", lastViolation.Err)
	}
	return nil, fmt.Errorf("%w: %w", ErrGeneration, lastViolation)
}

func (o *Orchestrator) shape(reply *ai.Reply, language core.Locale, snap *lookup.Snapshot, hits []core.SearchHit) *core.ReasoningAnswer {
	answer := &core.ReasoningAnswer{
		Answer:     reply.Answer,
		Language:   language,
		LiveData:   snap.LiveData(),
		Citations:  hits,
		Confidence: o.defaultConfidence,
		Trace:      append([]string(nil), DefaultTrace...),
	}
	if reply.Language != "" {
		if l, err := core.ParseLocale(reply.Language); err == nil {
			answer.Language = l
		}
	}
	if reply.Confidence != nil {
		answer.Confidence = core.ClampUnit(*reply.Confidence)
	}
	if len(reply.Trace) > 0 {
		answer.Trace = append([]string(nil), reply.Trace...)
	}
	return answer
}
