// Package ai defines the provider-agnostic contracts for text embedding and
// generation. Concrete providers live in the gemini and local subpackages.
package ai

import (
	"context"
	"errors"
)

const (
	// ProviderRemote marks vectors produced by the hosted Gemini embedding
	// model.
	ProviderRemote = "remote"
	// ProviderLocal marks vectors produced by the deterministic in-process
	// hashing embedder.
	ProviderLocal = "local"
)

var (
	// ErrMissingCredential is returned when a remote provider is requested
	// without a usable API key.
	ErrMissingCredential = errors.New("missing api credential")
	// ErrEmptyEmbedding is returned when a provider responds without any
	// embedding values.
	ErrEmptyEmbedding = errors.New("provider returned an empty embedding")
)

// Embedder turns text into a fixed-dimension vector. Implementations must be
// deterministic for identical input and must return unit-length vectors
// (except for the all-zero vector, which stays zero).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Model identifies the embedding model for index compatibility checks.
	Model() string
	// Dim is the length of every vector this embedder produces.
	Dim() int
}

// Generator produces free-form text from a prompt. Used for query
// summarization.
type Generator interface {
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}
