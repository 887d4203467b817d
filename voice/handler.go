package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/reasoning"
)

// Answerer runs a reasoning request.
type Answerer interface {
	Answer(ctx context.Context, req core.ReasoningRequest) (*core.ReasoningAnswer, error)
}

var _ Answerer = (*reasoning.Orchestrator)(nil)

// Result pairs the transcript with the answer it produced.
type Result struct {
	Transcription *core.Transcription   `json:"transcription"`
	Answer        *core.ReasoningAnswer `json:"result"`
}

// Handler transcribes audio and forwards the transcript as a query.
type Handler struct {
	transcriber ai.Transcriber
	answerer    Answerer
	logger      *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) error {
		if logger == nil {
			logger = slog.Default()
		}
		h.logger = logger
		return nil
	}
}

// NewHandler creates a voice handler.
func NewHandler(transcriber ai.Transcriber, answerer Answerer, opts ...Option) (*Handler, error) {
	if transcriber == nil {
		return nil, ErrTranscriberRequired
	}
	if answerer == nil {
		return nil, ErrAnswererRequired
	}
	h := &Handler{
		transcriber: transcriber,
		answerer:    answerer,
		logger:      slog.Default().With("component", "voice"),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// HandleAudio transcribes audio with lang as the hint and answers the transcript.
// The request language is the recognized language when the transcriber reports
// one, otherwise the hint.
func (h *Handler) HandleAudio(ctx context.Context, audio []byte, lang core.Locale) (*Result, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: audio is empty", ErrTranscription)
	}
	hint := lang.Resolve()

	transcription, err := h.transcriber.Transcribe(ctx, audio, hint)
	if err != nil {
		h.logger.Error("transcription failed", "bytes", len(audio), "err", err)
		if !errors.Is(err, ErrTranscription) {
			err = fmt.Errorf("%w: %w", ErrTranscription, err)
		}
		return nil, err
	}
	if transcription == nil || strings.TrimSpace(transcription.Text) == "" {
		return nil, fmt.Errorf("%w: transcript is empty", ErrTranscription)
	}
	if !transcription.Language.Valid() {
		transcription.Language = hint
	}
	h.logger.Debug("audio transcribed", "language", transcription.Language, "confidence", transcription.Confidence)

	answer, err := h.answerer.Answer(ctx, core.ReasoningRequest{
		Query:    strings.TrimSpace(transcription.Text),
		Language: transcription.Language,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Transcription: transcription, Answer: answer}, nil
}

// HandleBase64 decodes base64 audio, with or without a data URL prefix such
// as "data:audio/webm;base64,", and calls HandleAudio.
func (h *Handler) HandleBase64(ctx context.Context, encoded string, lang core.Locale) (*Result, error) {
	audio, err := DecodeAudio(encoded)
	if err != nil {
		return nil, err
	}
	return h.HandleAudio(ctx, audio, lang)
}

// DecodeAudio decodes base64 audio payloads. Standard and URL-safe alphabets
// are accepted, padded or not.
func DecodeAudio(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data URL", ErrTranscription)
		}
		encoded = encoded[comma+1:]
	}
	if encoded == "" {
		return nil, fmt.Errorf("%w: audio is empty", ErrTranscription)
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if audio, err := enc.DecodeString(encoded); err == nil {
			return audio, nil
		}
	}
	return nil, fmt.Errorf("%w: audio is not valid base64", ErrTranscription)
}
