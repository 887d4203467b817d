package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/chunker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIKey, EnvBaseURL, EnvEmbeddingModel, EnvGenerationModel, EnvTranscriptionModel, EnvDatabasePath} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.Equal(t, ai.DefaultHost, cfg.AI.BaseURL)
	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Equal(t, chunker.DefaultOverlap, cfg.ChunkOverlap())
	assert.Equal(t, 5, cfg.Retrieval.MatchCount)
	assert.Equal(t, 0.55, cfg.Retrieval.Threshold)
	assert.Equal(t, 0.72, cfg.Reasoning.DefaultConfidence)
	assert.True(t, cfg.FailOpen())
}

func TestLoad_FileValuesAndDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "logilink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ai:
  base_url: http://localhost:11434
  generation_model: llama3
  temperature: 0.7
storage:
  path: /var/lib/logilink
retrieval:
  match_count: 8
  fail_open: false
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", cfg.AI.BaseURL)
	assert.Equal(t, "llama3", cfg.AI.GenerationModel)
	assert.Equal(t, ai.DefaultEmbeddingModel, cfg.AI.EmbeddingModel)
	assert.Equal(t, 0.7, cfg.AI.Temperature)
	assert.Equal(t, "/var/lib/logilink", cfg.Storage.Path)
	assert.Equal(t, 8, cfg.Retrieval.MatchCount)
	assert.Equal(t, 0.55, cfg.Retrieval.Threshold)
	assert.False(t, cfg.FailOpen())
}

func TestLoad_ExplicitZerosAreKept(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "logilink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ai:
  temperature: 0
chunking:
  size: 50
  overlap: 0
retrieval:
  threshold: 0
reasoning:
  default_confidence: 0
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.AI.Temperature)
	assert.Equal(t, 50, cfg.Chunking.Size)
	assert.Zero(t, cfg.ChunkOverlap())
	assert.Zero(t, cfg.Retrieval.Threshold)
	assert.Zero(t, cfg.Reasoning.DefaultConfidence)
	assert.NoError(t, chunker.Validate(cfg.Chunking.Size, cfg.ChunkOverlap()))
}

func TestLoad_OverlapFollowsSize(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "logilink.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunking:\n  size: 50\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.ChunkOverlap())
	assert.NoError(t, chunker.Validate(cfg.Chunking.Size, cfg.ChunkOverlap()))
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "sk-test")
	t.Setenv(EnvBaseURL, "http://proxy:8080/v1")
	t.Setenv(EnvEmbeddingModel, "nomic-embed-text")
	t.Setenv(EnvGenerationModel, "gpt-4o")
	t.Setenv(EnvTranscriptionModel, "whisper-large")
	t.Setenv(EnvDatabasePath, "/tmp/ll.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "http://proxy:8080/v1", cfg.AI.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)
	assert.Equal(t, "gpt-4o", cfg.AI.GenerationModel)
	assert.Equal(t, "whisper-large", cfg.AI.TranscriptionModel)
	assert.Equal(t, "/tmp/ll.db", cfg.Storage.Path)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "dir", "logilink.yaml")

	cfg := Default()
	cfg.AI.GenerationModel = "custom"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestAIConfig(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.AI.APIKey = "sk-test"
	cfg.AI.BaseURL = "http://localhost:11434"
	cfg.AI.TranscriptionHost = "http://whisper:9000/v1"
	cfg.AI.TimeoutSecs = 5

	aiCfg := cfg.AIConfig()
	require.NoError(t, aiCfg.Validate())
	assert.Equal(t, "http://localhost:11434/v1", aiCfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", aiCfg.GenerationHost)
	assert.Equal(t, "http://whisper:9000/v1", aiCfg.TranscriptionHost)
	assert.Equal(t, 5*time.Second, aiCfg.RequestTimeout)
	assert.Equal(t, ai.DefaultWordBudget, aiCfg.WordBudget)
}

func TestAIConfig_MissingKeyFailsValidation(t *testing.T) {
	clearEnv(t)
	err := Default().AIConfig().Validate()
	assert.ErrorIs(t, err, ai.ErrMissingAPIKey)
}
