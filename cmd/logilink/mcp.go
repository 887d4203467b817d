package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/search"
	"github.com/urfave/cli/v2"
)

const serverVersion = "0.1.0"

type answerer interface {
	Answer(ctx context.Context, req core.ReasoningRequest) (*core.ReasoningAnswer, error)
}

type retriever interface {
	Search(ctx context.Context, query string, matchCount int, threshold float64) ([]core.SearchHit, error)
}

// toolset backs the MCP tools with the reasoning pipeline.
type toolset struct {
	answerer answerer
	ingester documentIngester
	searcher retriever
	logger   *slog.Logger
}

// MetadataHybridReason describes the hybrid_reason tool.
var MetadataHybridReason = &mcp.Tool{
	Name: "hybrid_reason",
	Description: "Answer a logistics question by combining the live record of a shipment " +
		"with the most relevant contract clauses. Returns the answer, the live data used " +
		"and the cited clauses.",
}

// MetadataIngestDocument describes the ingest_document tool.
var MetadataIngestDocument = &mcp.Tool{
	Name:        "ingest_document",
	Description: "Chunk, embed and store a contract document so later questions can cite it.",
}

// MetadataSearchContracts describes the search_contracts tool.
var MetadataSearchContracts = &mcp.Tool{
	Name:        "search_contracts",
	Description: "Return the stored contract clauses most similar to a query, highest score first.",
}

// InputHybridReason is the input for the hybrid_reason tool.
type InputHybridReason struct {
	Query      string `json:"query" jsonschema:"the question to answer"`
	ShipmentID uint64 `json:"shipment_id,omitempty" jsonschema:"shipment to ground the answer in"`
	Language   string `json:"language,omitempty" jsonschema:"answer language: en, hi, zh or es"`
}

// OutputLiveData is the shipment record an answer used.
type OutputLiveData struct {
	Reference   string  `json:"reference"`
	Status      string  `json:"status"`
	Location    string  `json:"location"`
	DelayHours  float64 `json:"delay_hours"`
	LatestEvent string  `json:"latest_event"`
}

// OutputCitation is one retrieved contract clause.
type OutputCitation struct {
	ContractID uint64  `json:"contract_id"`
	ChunkID    uint64  `json:"chunk_id"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// OutputHybridReason is the output of the hybrid_reason tool.
type OutputHybridReason struct {
	Answer     string           `json:"answer"`
	Language   string           `json:"language"`
	LiveData   *OutputLiveData  `json:"live_data,omitempty"`
	Citations  []OutputCitation `json:"citations"`
	Confidence float64          `json:"confidence"`
	Trace      []string         `json:"reasoning_trace"`
}

// InputIngestDocument is the input for the ingest_document tool.
type InputIngestDocument struct {
	ContractID uint64 `json:"contract_id" jsonschema:"contract that owns the document"`
	Name       string `json:"name,omitempty" jsonschema:"document name"`
	Text       string `json:"text" jsonschema:"full document text"`
}

// OutputIngestDocument is the output of the ingest_document tool.
type OutputIngestDocument struct {
	DocumentName   string `json:"document_name"`
	ChunksIngested int    `json:"chunks_ingested"`
}

// InputSearchContracts is the input for the search_contracts tool.
type InputSearchContracts struct {
	Query     string   `json:"query" jsonschema:"search text"`
	Limit     int      `json:"limit,omitempty" jsonschema:"maximum number of clauses"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum similarity in [0, 1]"`
}

// OutputSearchContracts is the output of the search_contracts tool.
type OutputSearchContracts struct {
	Hits []OutputCitation `json:"hits"`
}

func citations(hits []core.SearchHit) []OutputCitation {
	out := make([]OutputCitation, 0, len(hits))
	for _, h := range hits {
		out = append(out, OutputCitation{
			ContractID: uint64(h.ContractID),
			ChunkID:    uint64(h.ChunkID),
			Content:    h.Content,
			Similarity: h.Similarity,
		})
	}
	return out
}

func liveData(ld *core.LiveData) *OutputLiveData {
	if ld == nil {
		return nil
	}
	out := &OutputLiveData{
		Reference: ld.DisplayRef(),
		Status:    ld.Status,
		Location:  ld.Location,
	}
	if ld.DelayHours != nil {
		out.DelayHours = *ld.DelayHours
	}
	if ld.LatestEvent != nil {
		out.LatestEvent = ld.LatestEvent.Description
	}
	return out
}

func (t *toolset) requestLogger(tool string) *slog.Logger {
	return t.logger.With("tool", tool, "request_id", uuid.NewString())
}

// HybridReason answers a question through the orchestrator.
func (t *toolset) HybridReason(ctx context.Context, _ *mcp.CallToolRequest, input InputHybridReason) (*mcp.CallToolResult, OutputHybridReason, error) {
	logger := t.requestLogger(MetadataHybridReason.Name)
	req, err := buildRequest(input.Query, input.ShipmentID, input.Language)
	if err != nil {
		return nil, OutputHybridReason{}, err
	}
	answer, err := t.answerer.Answer(ctx, req)
	if err != nil {
		logger.Error("reasoning failed", "err", err)
		return nil, OutputHybridReason{}, err
	}
	logger.Debug("answered", "citations", len(answer.Citations))
	return nil, OutputHybridReason{
		Answer:     answer.Answer,
		Language:   string(answer.Language),
		LiveData:   liveData(answer.LiveData),
		Citations:  citations(answer.Citations),
		Confidence: answer.Confidence,
		Trace:      answer.Trace,
	}, nil
}

// IngestDocument stores one document under a contract.
func (t *toolset) IngestDocument(ctx context.Context, _ *mcp.CallToolRequest, input InputIngestDocument) (*mcp.CallToolResult, OutputIngestDocument, error) {
	logger := t.requestLogger(MetadataIngestDocument.Name)
	if input.ContractID == 0 {
		return nil, OutputIngestDocument{}, errors.New("contract_id is required")
	}
	res, err := t.ingester.Ingest(ctx, core.ID(input.ContractID), input.Name, input.Text)
	if err != nil {
		logger.Error("ingestion failed", "contract_id", input.ContractID, "err", err)
		return nil, OutputIngestDocument{}, err
	}
	return nil, OutputIngestDocument{
		DocumentName:   res.DocumentName,
		ChunksIngested: res.ChunksIngested(),
	}, nil
}

// SearchContracts runs a similarity search over stored clauses.
func (t *toolset) SearchContracts(ctx context.Context, _ *mcp.CallToolRequest, input InputSearchContracts) (*mcp.CallToolResult, OutputSearchContracts, error) {
	logger := t.requestLogger(MetadataSearchContracts.Name)
	limit := input.Limit
	if limit <= 0 {
		limit = search.DefaultMatchCount
	}
	threshold := search.DefaultThreshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}
	hits, err := t.searcher.Search(ctx, input.Query, limit, threshold)
	if err != nil {
		logger.Error("search failed", "err", err)
		return nil, OutputSearchContracts{}, err
	}
	return nil, OutputSearchContracts{Hits: citations(hits)}, nil
}

func newMCPServer(tools *toolset, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "logilink", Version: serverVersion}, &mcp.ServerOptions{
		Logger: logger,
	})
	mcp.AddTool(server, MetadataHybridReason, tools.HybridReason)
	mcp.AddTool(server, MetadataIngestDocument, tools.IngestDocument)
	mcp.AddTool(server, MetadataSearchContracts, tools.SearchContracts)
	return server
}

func mcpCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	orchestrator, err := rt.newOrchestrator()
	if err != nil {
		return err
	}
	pipeline, err := rt.newPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()
	searcher, err := rt.newSearcher()
	if err != nil {
		return err
	}

	tools := &toolset{
		answerer: orchestrator,
		ingester: pipeline,
		searcher: searcher,
		logger:   rt.logger,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newMCPServer(tools, rt.logger).Run(ctx, &mcp.StdioTransport{})
}
