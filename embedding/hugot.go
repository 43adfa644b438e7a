package embedding

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/retriever/helper"
)

const (
	defaultModelName = "sentence-transformers/all-MiniLM-L6-v2"
	defaultModelDim  = 384
)

// HugotProvider embeds text locally with an ONNX sentence transformer model
type HugotProvider struct {
	session   *hugot.Session
	embed     func(text string) ([]float32, error)
	dimension int
}

// NewDefaultHugotProvider creates a provider using the all-MiniLM-L6-v2 model
// which produces 384-dimensional embeddings
func NewDefaultHugotProvider() (*HugotProvider, error) {
	return NewHugotProvider(defaultModelName, "", defaultModelDim)
}

// NewHugotProvider creates a provider for the given sentence transformer model.
// The model is downloaded to modelDir on first use.
func NewHugotProvider(modelName string, modelDir string, dimension int) (*HugotProvider, error) {
	modelPath, err := helper.PrepareModel(modelName, modelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	embed := func(text string) ([]float32, error) {
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}
		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}
		return result.Embeddings[0], nil
	}

	return &HugotProvider{
		session:   session,
		embed:     embed,
		dimension: dimension,
	}, nil
}

// Embed generates an embedding for the text
func (p *HugotProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return p.embed(text)
}

// Dimension returns the embedding dimension
func (p *HugotProvider) Dimension() int {
	return p.dimension
}

// Close destroys the hugot session
func (p *HugotProvider) Close() error {
	if p.session != nil {
		return p.session.Destroy()
	}
	return nil
}
