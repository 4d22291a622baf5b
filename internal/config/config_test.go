package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpg/internal/evolve"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("demo", "/repo")
	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, "/repo", cfg.RootPath)
	assert.Equal(t, evolve.DefaultDriftThreshold, cfg.DriftThreshold)
	assert.False(t, cfg.UseLLM)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
}

func TestSaveLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".rpg", "config.json")

	cfg := DefaultConfig("demo", dir)
	cfg.Description = "a sample repository"
	cfg.UseLLM = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, loaded.Name)
	assert.Equal(t, cfg.Description, loaded.Description)
	assert.True(t, loaded.UseLLM)
	assert.Equal(t, cfg.Embedding, loaded.Embedding)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, evolve.DefaultDriftThreshold, cfg.DriftThreshold)
}

func TestLoad_CorruptFileYieldsConfigError(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestApplyEnvOverrides_OllamaEndpoint(t *testing.T) {
	t.Setenv("OLLAMA_ENDPOINT", "http://example:1234")
	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, DefaultConfig("demo", dir).Save(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example:1234", cfg.Embedding.OllamaEndpoint)
}

func TestApplyEnvOverrides_GeminiAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "secret-key")
	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, DefaultConfig("demo", dir).Save(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.Embedding.GenAIAPIKey)
}

func TestValidate_RejectsOutOfRangeDriftThreshold(t *testing.T) {
	cfg := DefaultConfig("demo", "/repo")
	cfg.DriftThreshold = 1.5
	assert.Error(t, cfg.Validate())
}
