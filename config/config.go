// Package config loads the logilink YAML configuration file and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/chunker"
	"github.com/poiesic/logilink/reasoning"
	"github.com/poiesic/logilink/search"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvAPIKey             = "OPENAI_API_KEY"
	EnvBaseURL            = "OPENAI_BASE_URL"
	EnvEmbeddingModel     = "EMBEDDING_MODEL"
	EnvGenerationModel    = "LLM_MODEL"
	EnvTranscriptionModel = "WHISPER_MODEL"
	EnvDatabasePath       = "LOGILINK_DB"
)

// DefaultDatabasePath is where the store lives when nothing else is configured.
const DefaultDatabasePath = "logilink.db"

// AIConfig configures the OpenAI-compatible backends.
type AIConfig struct {
	BaseURL            string  `yaml:"base_url"`
	EmbeddingHost      string  `yaml:"embedding_host,omitempty"`
	GenerationHost     string  `yaml:"generation_host,omitempty"`
	TranscriptionHost  string  `yaml:"transcription_host,omitempty"`
	APIKey             string  `yaml:"api_key,omitempty"`
	EmbeddingModel     string  `yaml:"embedding_model"`
	GenerationModel    string  `yaml:"generation_model"`
	TranscriptionModel string  `yaml:"transcription_model"`
	Temperature        float64 `yaml:"temperature"`
	WordBudget         int     `yaml:"word_budget"`
	TimeoutSecs        int     `yaml:"timeout_secs"`
}

// StorageConfig locates the badger database.
type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory,omitempty"`
}

// ChunkingConfig sets the chunk window in runes. An absent overlap defaults
// to a tenth of the size.
type ChunkingConfig struct {
	Size    int  `yaml:"size"`
	Overlap *int `yaml:"overlap,omitempty"`
}

// RetrievalConfig tunes similarity search.
type RetrievalConfig struct {
	MatchCount int     `yaml:"match_count"`
	Threshold  float64 `yaml:"threshold"`
	FailOpen   *bool   `yaml:"fail_open,omitempty"`
}

// IngestionConfig tunes document ingestion.
type IngestionConfig struct {
	PoolSize        int  `yaml:"pool_size"`
	AllowDuplicates bool `yaml:"allow_duplicates,omitempty"`
}

// ReasoningConfig tunes answer shaping.
type ReasoningConfig struct {
	DefaultConfidence float64 `yaml:"default_confidence"`
	SchemaRetries     int     `yaml:"schema_retries"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	AI        AIConfig        `yaml:"ai"`
	Storage   StorageConfig   `yaml:"storage"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := defaults()
	applyDefaults(cfg)
	return cfg
}

// defaults holds the values a file may override with anything, zero included.
func defaults() *AppConfig {
	return &AppConfig{
		AI: AIConfig{
			Temperature: ai.DefaultTemperature,
		},
		Retrieval: RetrievalConfig{
			Threshold: search.DefaultThreshold,
		},
		Reasoning: ReasoningConfig{
			DefaultConfidence: reasoning.DefaultConfidence,
		},
	}
}

// Load reads the config at path. A missing file, or an empty path, yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*AppConfig, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}
	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// AIConfig converts the ai section into an ai.Config. Per-service hosts fall
// back to BaseURL.
func (c *AppConfig) AIConfig() *ai.Config {
	host := func(specific string) string {
		if strings.TrimSpace(specific) != "" {
			return specific
		}
		return c.AI.BaseURL
	}
	return ai.NewConfig(
		ai.WithEmbeddingHost(host(c.AI.EmbeddingHost)),
		ai.WithGenerationHost(host(c.AI.GenerationHost)),
		ai.WithTranscriptionHost(host(c.AI.TranscriptionHost)),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithGenerationModel(c.AI.GenerationModel),
		ai.WithTranscriptionModel(c.AI.TranscriptionModel),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithWordBudget(c.AI.WordBudget),
		ai.WithRequestTimeout(time.Duration(c.AI.TimeoutSecs)*time.Second),
	)
}

// ChunkOverlap returns the configured overlap, or a tenth of the chunk size
// when none is set.
func (c *AppConfig) ChunkOverlap() int {
	if c.Chunking.Overlap == nil {
		return c.Chunking.Size / 10
	}
	return *c.Chunking.Overlap
}

// FailOpen reports the retrieval failure policy, defaulting to true.
func (c *AppConfig) FailOpen() bool {
	return c.Retrieval.FailOpen == nil || *c.Retrieval.FailOpen
}

func applyDefaults(cfg *AppConfig) {
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = ai.DefaultHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = ai.DefaultEmbeddingModel
	}
	if cfg.AI.GenerationModel == "" {
		cfg.AI.GenerationModel = ai.DefaultGenerationModel
	}
	if cfg.AI.TranscriptionModel == "" {
		cfg.AI.TranscriptionModel = ai.DefaultTranscriptionModel
	}
	if cfg.AI.WordBudget == 0 {
		cfg.AI.WordBudget = ai.DefaultWordBudget
	}
	if cfg.AI.TimeoutSecs == 0 {
		cfg.AI.TimeoutSecs = int(ai.DefaultRequestTimeout / time.Second)
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultDatabasePath
	}
	if cfg.Chunking.Size <= 0 {
		cfg.Chunking.Size = chunker.DefaultSize
	}
	if cfg.Chunking.Overlap == nil {
		overlap := cfg.ChunkOverlap()
		cfg.Chunking.Overlap = &overlap
	}
	if cfg.Retrieval.MatchCount <= 0 {
		cfg.Retrieval.MatchCount = search.DefaultMatchCount
	}
	if cfg.Ingestion.PoolSize <= 0 {
		cfg.Ingestion.PoolSize = 4
	}
}

func applyEnv(cfg *AppConfig) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.AI.APIKey, EnvAPIKey)
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.AI.BaseURL = v
		cfg.AI.EmbeddingHost = ""
		cfg.AI.GenerationHost = ""
		cfg.AI.TranscriptionHost = ""
	}
	set(&cfg.AI.EmbeddingModel, EnvEmbeddingModel)
	set(&cfg.AI.GenerationModel, EnvGenerationModel)
	set(&cfg.AI.TranscriptionModel, EnvTranscriptionModel)
	set(&cfg.Storage.Path, EnvDatabasePath)
}
