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

package ai

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultHost is the public OpenAI API endpoint.
	DefaultHost = "https://api.openai.com/v1"

	DefaultEmbeddingModel     = "text-embedding-3-large"
	DefaultGenerationModel    = "gpt-4o-mini"
	DefaultTranscriptionModel = "whisper-1"

	// DefaultTemperature keeps generation deterministic-leaning.
	DefaultTemperature = 0.2

	// DefaultWordBudget caps the length of synthesized answers.
	DefaultWordBudget = 180

	DefaultRequestTimeout = 60 * time.Second
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// GenerationHost is the base URL for the chat completion service API.
	GenerationHost string

	// TranscriptionHost is the base URL for the speech-to-text service API.
	TranscriptionHost string

	// APIKey authenticates every call. Local servers that ignore auth
	// still need a placeholder such as "none".
	APIKey string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// It is also recorded on every stored embedding row.
	EmbeddingModel string

	// GenerationModel is the chat model used for answer synthesis.
	GenerationModel string

	// TranscriptionModel is the speech-to-text model.
	TranscriptionModel string

	// Temperature is the sampling temperature for generation, in [0, 2].
	Temperature float64

	// WordBudget is the maximum answer length the prompt asks for.
	WordBudget int

	// RequestTimeout bounds each transcription upload.
	RequestTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGenerationHost sets the chat completion service host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithTranscriptionHost sets the transcription service host URL.
func WithTranscriptionHost(host string) ConfigOption {
	return func(c *Config) {
		c.TranscriptionHost = host
	}
}

// WithHost sets every service host to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
		c.TranscriptionHost = host
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGenerationModel sets the chat model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithTranscriptionModel sets the speech-to-text model identifier.
func WithTranscriptionModel(model string) ConfigOption {
	return func(c *Config) {
		c.TranscriptionModel = model
	}
}

// WithTemperature sets the generation temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithWordBudget sets the answer word budget.
func WithWordBudget(words int) ConfigOption {
	return func(c *Config) {
		c.WordBudget = words
	}
}

// WithRequestTimeout sets the per-request timeout for raw HTTP calls.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// DefaultConfig returns a Config targeting the OpenAI API.
// The API key is left empty and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:      DefaultHost,
		GenerationHost:     DefaultHost,
		TranscriptionHost:  DefaultHost,
		EmbeddingModel:     DefaultEmbeddingModel,
		GenerationModel:    DefaultGenerationModel,
		TranscriptionModel: DefaultTranscriptionModel,
		Temperature:        DefaultTemperature,
		WordBudget:         DefaultWordBudget,
		RequestTimeout:     DefaultRequestTimeout,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithAPIKey("none"),
//	    WithEmbeddingModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.GenerationHost = normalizeHost(c.GenerationHost)
	c.TranscriptionHost = normalizeHost(c.TranscriptionHost)
	c.APIKey = strings.TrimSpace(c.APIKey)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.EmbeddingHost == "" {
		return fmt.Errorf("%w: EmbeddingHost is required", ErrConfiguration)
	}
	if c.GenerationHost == "" {
		return fmt.Errorf("%w: GenerationHost is required", ErrConfiguration)
	}
	if c.TranscriptionHost == "" {
		return fmt.Errorf("%w: TranscriptionHost is required", ErrConfiguration)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: EmbeddingModel is required", ErrConfiguration)
	}
	if c.GenerationModel == "" {
		return fmt.Errorf("%w: GenerationModel is required", ErrConfiguration)
	}
	if c.TranscriptionModel == "" {
		return fmt.Errorf("%w: TranscriptionModel is required", ErrConfiguration)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: Temperature must be between 0 and 2", ErrConfiguration)
	}
	if c.WordBudget < 1 {
		return fmt.Errorf("%w: WordBudget must be positive", ErrConfiguration)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: RequestTimeout must be positive", ErrConfiguration)
	}
	return nil
}
