package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"rpg/internal/rpglog"
)

// GenAIEmbedder generates embeddings via Google's Gemini embedding API, an
// alternative to OllamaEmbedder for deployments that prefer a hosted
// provider over a local server.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

// NewGenAIEmbedder constructs a GenAI-backed Embedder.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding: GenAI API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("embedding: create GenAI client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model}, nil
}

func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	timer := rpglog.StartTimer(rpglog.CategorySemantic, "GenAIEmbedder.Embed")
	defer timer.Stop()

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	dim := int32(e.Dimensions())
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding: GenAI returned no embeddings")
	}
	return result.Embeddings[0].Values, nil
}

// Dimensions reports gemini-embedding-001's output width.
func (e *GenAIEmbedder) Dimensions() int { return 3072 }

func (e *GenAIEmbedder) Name() string { return fmt.Sprintf("genai:%s", e.model) }
