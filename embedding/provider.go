// Package embedding provides text embedding providers for the retrieval engine.
package embedding

import (
	"context"
	"errors"
)

// Sentinel errors classifying provider failures. Callers check these with
// errors.Is to decide between retrying and recording a failure.
var (
	ErrRateLimited  = errors.New("embedding provider rate limited")
	ErrTimeout      = errors.New("embedding provider timed out")
	ErrInvalidInput = errors.New("invalid embedding input")
)

// Provider generates vector embeddings from text.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed generates a vector embedding for a single text string.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension this provider produces.
	Dimension() int

	// Close releases any resources held by the provider.
	Close() error
}

// IsTransient reports whether an embedding error is worth retrying
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
