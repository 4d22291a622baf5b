package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_Ollama(t *testing.T) {
	e, err := NewEmbedder(context.Background(), Config{Provider: "ollama", OllamaEndpoint: "http://x", OllamaModel: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)
}

func TestNewEmbedder_Deterministic(t *testing.T) {
	e, err := NewEmbedder(context.Background(), Config{Provider: "deterministic", Dimensions: 64})
	require.NoError(t, err)
	assert.Equal(t, 64, e.Dimensions())
}

func TestNewEmbedder_EmptyProviderDefaultsToDeterministic(t *testing.T) {
	e, err := NewEmbedder(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, 256, e.Dimensions())
}

func TestNewEmbedder_GenAIRequiresAPIKey(t *testing.T) {
	_, err := NewEmbedder(context.Background(), Config{Provider: "genai"})
	assert.Error(t, err)
}

func TestNewEmbedder_GenAIUsesEnvFallbackWhenConfigKeyEmpty(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	e, err := NewEmbedder(context.Background(), Config{Provider: "genai", GenAIModel: "gemini-embedding-001"})
	require.NoError(t, err)
	assert.IsType(t, &GenAIEmbedder{}, e)
}

func TestNewEmbedder_UnsupportedProvider(t *testing.T) {
	_, err := NewEmbedder(context.Background(), Config{Provider: "bogus"})
	assert.Error(t, err)
}

func TestFindTopK_RanksBySimilarityDescending(t *testing.T) {
	query := []float32{1, 0}
	corpus := [][]float32{
		{0, 1},
		{1, 0},
		{0.7, 0.7},
	}
	results := FindTopK(query, corpus, 2)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 2, results[1].Index)
}
