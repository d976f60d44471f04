package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spigell/shl-recommender/internal/ai"
	"github.com/spigell/shl-recommender/internal/ai/gemini"
	"github.com/spigell/shl-recommender/internal/ai/local"
	"github.com/spigell/shl-recommender/internal/catalog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the embedding index from a scraped catalog",
	Run: func(cmd *cobra.Command, _ []string) {
		buildIndex(cmd)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().String("catalog", defaultCatalogPath, "path of the scraped catalog")
	indexCmd.Flags().StringP("out", "o", catalog.DefaultIndexPath, "path for the embedding index")
	indexCmd.Flags().String("provider", "", "embedding provider: remote or local (default remote when a gemini key is configured)")
}

func buildIndex(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	config := mustConfig(logger)

	logger.Info("starting the index build", zap.String("version", version))

	debugConfig(logger, config)

	catalogPath := stringFlagOrConfig(cmd, "catalog", config.CatalogFile)
	items, err := catalog.LoadItems(catalogPath)
	if err != nil {
		logger.Fatal("loading the catalog",
			zap.Error(err),
			zap.String("hint", "run 'shl-recommender scrape' first"),
		)
	}

	providerName := stringFlagOrConfig(cmd, "provider", config.Provider)
	embedder, provider, err := buildEmbedder(ctx, config, providerName, logger)
	if err != nil {
		logger.Fatal("building the embedder",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or GEMINI_API_KEY_FILE, or pass --provider local"),
		)
	}

	logger.Info("embedding the catalog",
		zap.String("provider", provider),
		zap.String("model", embedder.Model()),
		zap.Int("dim", embedder.Dim()),
		zap.Int("items", len(items)),
	)

	index, err := catalog.NewBuilder(embedder, provider, logger).Build(ctx, items)
	if err != nil {
		logger.Fatal("building the index", zap.Error(err))
	}

	out := stringFlagOrConfig(cmd, "out", config.IndexFile)
	if err := index.Save(out); err != nil {
		logger.Fatal("saving the index", zap.Error(err))
	}

	logger.Info("index saved", zap.String("path", out), zap.Int("items", index.Len()))
}

// buildEmbedder picks the embedding provider for an index build. An explicit
// name wins; otherwise remote is used when a gemini key is configured, local
// when it is not.
func buildEmbedder(ctx context.Context, config *Config, name string, logger *zap.Logger) (ai.Embedder, string, error) {
	apiKey, err := loadGeminiKey(config)
	if err != nil {
		return nil, "", err
	}

	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		name = ai.ProviderLocal
		if apiKey != "" {
			name = ai.ProviderRemote
		}
	}

	switch name {
	case ai.ProviderRemote:
		client, err := gemini.NewClient(ctx, apiKey, logger)
		if err != nil {
			return nil, "", err
		}

		var model string
		var dim int
		if config != nil && config.Gemini != nil {
			model = config.Gemini.EmbedModel
			dim = config.Gemini.EmbedDim
		}

		return gemini.NewEmbedder(client, model, dim), ai.ProviderRemote, nil
	case ai.ProviderLocal:
		return local.New(0), ai.ProviderLocal, nil
	default:
		return nil, "", fmt.Errorf("unsupported provider: %s", name)
	}
}
