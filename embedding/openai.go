package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIProvider embeds text through an OpenAI-compatible embedding API
type OpenAIProvider struct {
	embedder  embeddings.Embedder
	dimension int
}

// NewOpenAIProvider creates a provider for an OpenAI-compatible embedding endpoint.
// Use token "none" for local services that don't require authentication.
func NewOpenAIProvider(baseURL string, token string, model string, dimension int) (*OpenAIProvider, error) {
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &OpenAIProvider{
		embedder:  embedder,
		dimension: dimension,
	}, nil
}

// Embed generates an embedding for the text.
// API errors are classified into the provider error taxonomy so the indexer
// can retry transient failures.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, classifyAPIError(err)
	}

	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}

	return vectors[0], nil
}

// Dimension returns the embedding dimension
func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op, the underlying HTTP client holds no resources
func (p *OpenAIProvider) Close() error {
	return nil
}

// classifyAPIError maps API failures onto the sentinel error taxonomy
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return err
	}
}
