package gemini

import (
	"context"
	"strings"

	"github.com/spigell/shl-recommender/internal/ai"
)

// Embedder adapts Client to the ai.Embedder contract for a fixed model and
// dimension. Returned vectors are L2-normalized.
type Embedder struct {
	client *Client
	model  string
	dim    int
}

// NewEmbedder wires a Client to a concrete embedding model. Empty model and
// non-positive dim fall back to the package defaults.
func NewEmbedder(client *Client, model string, dim int) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultEmbedModel
	}
	if dim <= 0 {
		dim = DefaultEmbedDim
	}

	return &Embedder{
		client: client,
		model:  model,
		dim:    dim,
	}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	values, err := e.client.EmbedText(ctx, e.model, text, e.dim)
	if err != nil {
		return nil, err
	}
	return ai.NormalizeL2(values), nil
}

func (e *Embedder) Model() string { return e.model }

func (e *Embedder) Dim() int { return e.dim }
