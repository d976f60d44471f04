package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/shl-recommender/internal/ai"
	"github.com/spigell/shl-recommender/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultBuildWorkers = 4

// Builder embeds catalog items and assembles a validated Index.
type Builder struct {
	embedder ai.Embedder
	provider string
	logger   *zap.Logger
	workers  int
	retry    utils.RetryConfig
}

// NewBuilder returns a Builder for the given provider. Remote builds embed
// with a bounded worker pool and retry on failure; local builds run
// sequentially since the hashing embedder cannot fail.
func NewBuilder(embedder ai.Embedder, provider string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Builder{
		embedder: embedder,
		provider: provider,
		logger:   logger,
		workers:  defaultBuildWorkers,
		retry:    utils.DefaultRetryConfig(),
	}
}

// Build embeds every item and returns the validated index. Items are modified
// in place: the Embedding field is filled and test type codes are normalized.
func (b *Builder) Build(ctx context.Context, items []*Item) (*Index, error) {
	if b.embedder == nil {
		return nil, errors.New("embedder is required")
	}

	kept := make([]*Item, 0, len(items))
	for _, item := range items {
		if item != nil {
			kept = append(kept, item)
		}
	}
	items = kept

	started := time.Now()
	b.logger.Info("building index",
		zap.String("provider", b.provider),
		zap.String("model", b.embedder.Model()),
		zap.Int("dim", b.embedder.Dim()),
		zap.Int("items", len(items)),
	)

	var err error
	if b.provider == ai.ProviderRemote {
		err = b.embedConcurrent(ctx, items)
	} else {
		err = b.embedSequential(ctx, items)
	}
	if err != nil {
		return nil, err
	}

	idx := &Index{
		Provider: b.provider,
		Model:    b.embedder.Model(),
		Dim:      b.embedder.Dim(),
		Items:    items,
	}

	for _, item := range idx.Items {
		item.TestTypes = normalizeTestTypes(item.TestTypes)
	}

	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("built index is invalid: %w", err)
	}

	b.logger.Info("index built",
		zap.Int("items", idx.Len()),
		zap.Duration("elapsed", time.Since(started)),
	)

	return idx, nil
}

func (b *Builder) embedSequential(ctx context.Context, items []*Item) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		vec, err := b.embedder.Embed(ctx, item.EmbeddingText())
		if err != nil {
			return fmt.Errorf("embed item %q: %w", item.Name, err)
		}
		item.Embedding = vec
	}
	return nil
}

func (b *Builder) embedConcurrent(ctx context.Context, items []*Item) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, item := range items {
		g.Go(func() error {
			vec, err := utils.Retry(gctx, b.retry, func() ([]float32, error) {
				return b.embedder.Embed(gctx, item.EmbeddingText())
			})
			if err != nil {
				return fmt.Errorf("embed item %q: %w", item.Name, err)
			}

			item.Embedding = vec
			b.logger.Debug("item embedded", zap.String("name", item.Name))
			return nil
		})
	}

	return g.Wait()
}
