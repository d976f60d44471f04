package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/shl-recommender/internal/catalog"
	"github.com/spigell/shl-recommender/internal/scraper"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the SHL catalog of individual assessments",
	Run: func(cmd *cobra.Command, _ []string) {
		scrape(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringP("out", "o", defaultCatalogPath, "path for the scraped catalog")
	scrapeCmd.Flags().Bool("enrich", false, "fetch every product page for duration and description")
}

func scrape(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	config := mustConfig(logger)

	logger.Info("starting the catalog scrape", zap.String("version", version))

	debugConfig(logger, config)

	client := scraper.New(ctx, logger)
	if config.Scraper != nil && config.Scraper.BaseURL != "" {
		client.BaseURL = config.Scraper.BaseURL
	}

	items, err := client.ScrapeCatalog()
	if err != nil {
		logger.Fatal("scraping the catalog", zap.Error(err))
	}
	if len(items) == 0 {
		logger.Fatal("no items scraped", zap.String("hint", "the catalog markup may have changed"))
	}

	enrich := config.Scraper != nil && config.Scraper.Enrich
	if flag := cmd.Flag("enrich"); flag != nil && flag.Changed {
		enrich = flag.Value.String() == "true"
	}
	if enrich {
		logger.Info("enriching items from product pages", zap.Int("count", len(items)))
		if err := client.Enrich(items); err != nil {
			logger.Fatal("enriching the catalog", zap.Error(err))
		}
	}

	out := stringFlagOrConfig(cmd, "out", config.CatalogFile)
	if err := catalog.SaveItems(out, items); err != nil {
		logger.Fatal("saving the catalog", zap.Error(err))
	}

	logger.Info("catalog saved", zap.String("path", out), zap.Int("items", len(items)))
}
