package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/shl-recommender/internal/ai"
	"github.com/spigell/shl-recommender/internal/ai/gemini"
	"github.com/spigell/shl-recommender/internal/ai/local"
	"github.com/spigell/shl-recommender/internal/catalog"
	"github.com/spigell/shl-recommender/internal/extract"
	"github.com/spigell/shl-recommender/internal/recommend"
	"github.com/spigell/shl-recommender/internal/summary"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [query]",
	Short: "Recommend assessments for a job description or posting url",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRecommend(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().String("index", catalog.DefaultIndexPath, "path of the embedding index")
	recommendCmd.Flags().String("url", "", "job posting url to use as the query")
	recommendCmd.Flags().IntP("top-k", "k", recommend.DefaultTopK, "number of recommendations, between 1 and 10")
	recommendCmd.Flags().Bool("balance", true, "interleave knowledge and personality assessments for mixed queries")
	recommendCmd.Flags().Bool("json", false, "print recommendations as json")
	recommendCmd.Flags().BoolP("interactive", "i", false, "read queries interactively until an empty line")
}

func runRecommend(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger := newLogger()
	config := mustConfig(logger)

	logger.Info("starting the recommender", zap.String("version", version))

	debugConfig(logger, config)

	index, recommender := mustRecommender(ctx, cmd, config, logger)
	logger.Info("index loaded",
		zap.String("provider", index.Provider),
		zap.String("model", index.Model),
		zap.Int("items", index.Len()),
	)

	topK, _ := cmd.Flags().GetInt("top-k")
	topK = recommend.ClampTopK(topK)
	balance, _ := cmd.Flags().GetBool("balance")
	asJSON, _ := cmd.Flags().GetBool("json")

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		interactiveLoop(ctx, recommender, topK, balance, asJSON, logger)
		return
	}

	query := resolveQuery(ctx, cmd, args, logger)

	results, err := recommender.Recommend(ctx, query, topK, balance)
	if err != nil {
		logger.Fatal("recommending", zap.Error(err))
	}

	if err := printResults(results, asJSON); err != nil {
		logger.Fatal("printing results", zap.Error(err))
	}
}

// resolveQuery takes the positional query or, with --url, the extracted
// posting text.
func resolveQuery(ctx context.Context, cmd *cobra.Command, args []string, logger *zap.Logger) string {
	var query string
	if len(args) > 0 {
		query = strings.TrimSpace(args[0])
	}

	pageURL, _ := cmd.Flags().GetString("url")
	pageURL = strings.TrimSpace(pageURL)

	if query == "" && pageURL == "" {
		logger.Fatal("query is required", zap.String("hint", "pass a query argument, --url, or --interactive"))
	}

	if query == "" {
		text, err := extract.New(logger).Text(ctx, pageURL)
		if err != nil {
			logger.Fatal("extracting text from url", zap.String("url", pageURL), zap.Error(err))
		}

		logger.Info("using extracted posting text as the query",
			zap.String("url", pageURL),
			zap.Int("chars", len(text)),
		)
		query = text
	}

	return query
}

func interactiveLoop(ctx context.Context, recommender *recommend.Recommender, topK int, balance, asJSON bool, logger *zap.Logger) {
	for {
		prompt := promptui.Prompt{Label: "Query (empty to exit)"}

		query, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				logger.Info("exiting", zap.String("reason", "prompt interrupted"))
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		if strings.TrimSpace(query) == "" {
			logger.Info("exiting", zap.String("reason", "empty query"))
			return
		}

		results, err := recommender.Recommend(ctx, query, topK, balance)
		if err != nil {
			logger.Error("recommending", zap.Error(err))
			continue
		}

		if err := printResults(results, asJSON); err != nil {
			logger.Fatal("printing results", zap.Error(err))
		}
	}
}

func printResults(results []recommend.Result, asJSON bool) error {
	if asJSON {
		pretty, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("no recommendations")
		return nil
	}

	for i, r := range results {
		duration := "unknown duration"
		if r.DurationMinutes != nil {
			duration = fmt.Sprintf("%.0f minutes", *r.DurationMinutes)
		}

		fmt.Printf("%2d. %s (score %.3f)\n", i+1, r.Name, r.Score)
		fmt.Printf("    types: %s | %s | remote testing: %t | adaptive: %t\n",
			strings.Join(r.TestTypes, ","), duration, r.RemoteTesting, r.AdaptiveIRT)
		fmt.Printf("    %s\n", r.URL)
	}

	return nil
}

// mustRecommender loads the index and wires the matching embedder and, for
// remote indexes, the query summarizer.
func mustRecommender(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (*catalog.Index, *recommend.Recommender) {
	indexPath := stringFlagOrConfig(cmd, "index", config.IndexFile)

	index, err := catalog.LoadIndex(indexPath)
	if err != nil {
		logger.Fatal("loading the index",
			zap.Error(err),
			zap.String("hint", "run 'shl-recommender index' first"),
		)
	}

	embedder, summarizer, err := providerForIndex(ctx, config, index, logger)
	if err != nil {
		logger.Fatal("building the embedding provider",
			zap.Error(err),
			zap.String("hint", "a remote index needs GEMINI_API_KEY or GEMINI_API_KEY_FILE"),
		)
	}

	recommender, err := recommend.New(recommend.Config{}, recommend.Deps{
		Index:      index,
		Embedder:   embedder,
		Summarizer: summarizer,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("building the recommender", zap.Error(err))
	}

	return index, recommender
}

// providerForIndex returns an embedder matching the index's provider, model,
// and dimension. Remote indexes also get the gemini-backed query summarizer.
func providerForIndex(ctx context.Context, config *Config, index *catalog.Index, logger *zap.Logger) (ai.Embedder, recommend.QuerySummarizer, error) {
	switch index.Provider {
	case ai.ProviderLocal:
		return local.New(index.Dim), nil, nil
	case ai.ProviderRemote:
		apiKey, err := loadGeminiKey(config)
		if err != nil {
			return nil, nil, err
		}

		client, err := gemini.NewClient(ctx, apiKey, logger)
		if err != nil {
			return nil, nil, err
		}

		var models []string
		if config != nil && config.Gemini != nil {
			models = config.Gemini.SummaryModels
		}
		summarizer := summary.New(client, summary.NewLRUCache(0), models, logger)

		return gemini.NewEmbedder(client, index.Model, index.Dim), summarizer, nil
	default:
		return nil, nil, fmt.Errorf("unsupported index provider: %s", index.Provider)
	}
}
