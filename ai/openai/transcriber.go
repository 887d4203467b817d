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

package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
	"github.com/segmentio/encoding/json"
)

// audioFileName is the upload name; the backend sniffs the container from it.
const audioFileName = "input.webm"

// Transcriber implements ai.Transcriber against an OpenAI-compatible
// /audio/transcriptions endpoint.
type Transcriber struct {
	client *http.Client
	url    string
	apiKey string
	model  string
	logger *slog.Logger
}

var _ ai.Transcriber = (*Transcriber)(nil)

type transcriptionSegment struct {
	AvgLogprob float64 `json:"avg_logprob"`
}

type transcriptionResponse struct {
	Text     string                 `json:"text"`
	Language string                 `json:"language"`
	Segments []transcriptionSegment `json:"segments"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func newTranscriber(config *ai.Config) (*Transcriber, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Transcriber{
		client: &http.Client{Timeout: config.RequestTimeout},
		url:    config.TranscriptionHost + "/audio/transcriptions",
		apiKey: config.APIKey,
		model:  config.TranscriptionModel,
		logger: slog.Default().With("component", "openai-transcriber"),
	}, nil
}

// NewTranscriber creates a new transcriber using the provided configuration.
//
// Returns ai.Transcriber interface to enforce abstraction.
func NewTranscriber(config *ai.Config) (ai.Transcriber, error) {
	return newTranscriber(config)
}

// Transcribe uploads audio as multipart form data and returns the transcript.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, lang core.Locale) (*core.Transcription, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", ai.ErrTranscription)
	}
	lang = lang.Resolve()

	body, contentType, err := t.encodeForm(audio, lang)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrTranscription, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrTranscription, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	t.logger.Debug("transcribing audio", "model", t.model, "bytes", len(audio), "language", lang)
	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error("transcription request failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrTranscription, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrTranscription, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(payload))
		var apiErr apiErrorResponse
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		t.logger.Error("transcription rejected", "status", resp.StatusCode, "message", msg)
		return nil, fmt.Errorf("%w: status %d: %s", ai.ErrTranscription, resp.StatusCode, msg)
	}

	var decoded transcriptionResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", ai.ErrTranscription, err)
	}

	return &core.Transcription{
		Text:       strings.TrimSpace(decoded.Text),
		Language:   recognizedLocale(decoded.Language, lang),
		Confidence: segmentConfidence(decoded.Segments),
	}, nil
}

func (t *Transcriber) encodeForm(audio []byte, lang core.Locale) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"model", t.model},
		{"language", string(lang)},
		{"response_format", "verbose_json"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("file", audioFileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var languageNames = map[string]core.Locale{
	"english": core.LocaleEnglish,
	"hindi":   core.LocaleHindi,
	"chinese": core.LocaleChinese,
	"spanish": core.LocaleSpanish,
}

// recognizedLocale maps a backend language label to a supported locale,
// falling back to the hint.
func recognizedLocale(label string, hint core.Locale) core.Locale {
	label = strings.ToLower(strings.TrimSpace(label))
	if l, ok := languageNames[label]; ok {
		return l
	}
	if l, err := core.ParseLocale(label); err == nil {
		return l
	}
	return hint
}

// segmentConfidence is exp of the mean segment log-probability, or 0 with no segments.
func segmentConfidence(segments []transcriptionSegment) float64 {
	if len(segments) == 0 {
		return 0
	}
	var sum float64
	for _, s := range segments {
		sum += s.AvgLogprob
	}
	return core.ClampUnit(math.Exp(sum / float64(len(segments))))
}
