package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/spigell/resume-matcher/internal/embedding"
)

const (
	DefaultEmbeddingModel     = "text-embedding-004"
	DefaultEmbeddingDimension = 768
)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder produces sentence embeddings through the Gemini embedding endpoint.
type Embedder struct {
	models contentEmbedder
	model  string
	dim    int
}

func NewEmbedder(client *genai.Client, model string, dim int) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("genai client is required")
	}
	return newEmbedder(client.Models, model, dim), nil
}

func newEmbedder(models contentEmbedder, model string, dim int) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultEmbeddingModel
	}
	if dim <= 0 {
		dim = DefaultEmbeddingDimension
	}
	return &Embedder{models: models, model: model, dim: dim}
}

// LoadEmbedder returns a loader that connects on first use, so a missing key
// surfaces as an unavailable model instead of a startup failure.
func LoadEmbedder(apiKey, model string, dim int) embedding.Loader {
	return func(ctx context.Context) (embedding.Embedder, error) {
		client, err := NewClient(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return NewEmbedder(client, model, dim)
	}
}

func (e *Embedder) Name() string { return e.model }

func (e *Embedder) Dimension() int { return e.dim }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := int32(e.dim)
	resp, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             "SEMANTIC_SIMILARITY",
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("gemini api returned no embedding")
	}

	values := resp.Embeddings[0].Values
	if len(values) != e.dim {
		return nil, fmt.Errorf("gemini api returned %d dimensions, expected %d", len(values), e.dim)
	}
	return values, nil
}
