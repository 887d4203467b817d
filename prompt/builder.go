package prompt

import (
	"fmt"
	"strings"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
	"github.com/tmc/langchaingo/outputparser"
)

// DefaultWordBudget caps the length of generated answers.
const DefaultWordBudget = 180

const systemPromptTemplate = `You are Logi-Link AI, an active digital dispatcher for enterprise logistics.
Synthesize the LIVE DATA (current shipment state and its latest tracking event) with the STATIC KNOWLEDGE (contract clauses retrieved by similarity search) into one grounded answer.

Rules:
- Give a concise, actionable answer with a clear liability assessment and a recommended next step.
- Keep the answer under %d words.
- Cite the documents behind any static knowledge you use.
- Answer in the language of the user's query.
- Output ONLY a single JSON object with the fields answer, confidence (0-1), citations and trace. Do not include any preamble or text outside the object.

%s`

const userPromptTemplate = `LANGUAGE: %s
USER QUERY: %s

LIVE DATA:
%s

STATIC KNOWLEDGE:
%s

TASK:
1) Summarize the live status.
2) Compare it against the contract clauses.
3) Decide liability or the next action.
4) Keep the language of the query.`

// replySchema drives the format instructions sent to the model.
type replySchema struct {
	Answer     string           `json:"answer" describe:"the synthesized answer"`
	Confidence float64          `json:"confidence" describe:"between 0 and 1"`
	Citations  []citationSchema `json:"citations" describe:"documents used as evidence"`
	Trace      []string         `json:"trace" describe:"reasoning steps taken, in order"`
	Language   string           `json:"language" describe:"language code of the answer"`
}

type citationSchema struct {
	DocumentID string `json:"document_id" describe:"the Doc number of the cited clause"`
	Snippet    string `json:"snippet" describe:"short quote from the clause"`
}

// Input is everything the builder needs for one request.
type Input struct {
	Query     string
	Language  core.Locale
	LiveData  string
	Citations string
}

// Builder renders reasoning prompts.
type Builder struct {
	wordBudget         int
	formatInstructions string
}

// Option configures a Builder.
type Option func(*Builder) error

// WithWordBudget sets the answer length limit stated in the system prompt.
func WithWordBudget(words int) Option {
	return func(b *Builder) error {
		if words <= 0 {
			return fmt.Errorf("word budget must be positive, got %d", words)
		}
		b.wordBudget = words
		return nil
	}
}

// NewBuilder creates a prompt builder.
func NewBuilder(opts ...Option) (*Builder, error) {
	parser, err := outputparser.NewDefined(replySchema{})
	if err != nil {
		return nil, fmt.Errorf("failed to derive reply schema: %w", err)
	}

	b := &Builder{
		wordBudget:         DefaultWordBudget,
		formatInstructions: parser.GetFormatInstructions(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// WordBudget returns the configured answer length limit.
func (b *Builder) WordBudget() int {
	return b.wordBudget
}

// SystemPrompt returns the fixed system instruction.
func (b *Builder) SystemPrompt() string {
	return fmt.Sprintf(systemPromptTemplate, b.wordBudget, b.formatInstructions)
}

// UserPrompt renders the per-request instruction. Empty blocks fall back to
// their placeholders.
func (b *Builder) UserPrompt(in Input) string {
	live := strings.TrimSpace(in.LiveData)
	if live == "" {
		live = NoShipmentMatched
	}
	citations := strings.TrimSpace(in.Citations)
	if citations == "" {
		citations = NoCitationsFound
	}
	return fmt.Sprintf(userPromptTemplate, in.Language.Resolve(), strings.TrimSpace(in.Query), live, citations)
}

// Build returns the system message followed by the user message.
func (b *Builder) Build(in Input) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: b.SystemPrompt()},
		{Role: ai.RoleUser, Content: b.UserPrompt(in)},
	}
}
