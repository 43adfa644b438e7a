// Package mock provides a deterministic in-memory embedding provider for tests.
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/siherrmann/retriever/embedding"
)

// Provider is a deterministic embedding provider.
// The same text always produces the same vector, and different texts
// produce different vectors with overwhelming probability.
type Provider struct {
	dimension int

	mu    sync.Mutex
	calls int
	// FailWith, when set, is returned by every Embed call.
	FailWith error
	// FailTimes makes the next n Embed calls fail with FailWith before succeeding.
	FailTimes int
}

// NewProvider creates a mock provider producing vectors of the given dimension
func NewProvider(dimension int) *Provider {
	return &Provider{dimension: dimension}
}

// Embed returns a deterministic pseudo-random unit vector derived from the text
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", embedding.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.calls++
	if p.FailWith != nil && (p.FailTimes == 0 || p.calls <= p.FailTimes) {
		err := p.FailWith
		p.mu.Unlock()
		return nil, err
	}
	p.mu.Unlock()

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	// Components are kept non-negative so pairwise cosine similarities stay
	// in [0, 1], matching the range of real sentence embeddings closely enough
	vector := make([]float32, p.dimension)
	var norm float64
	for i := range vector {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(seed>>11) / float64(uint64(1)<<53)
		vector[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}

	return vector, nil
}

// Calls returns the number of Embed calls made so far
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Dimension returns the embedding dimension
func (p *Provider) Dimension() int {
	return p.dimension
}

// Close is a no-op
func (p *Provider) Close() error {
	return nil
}
