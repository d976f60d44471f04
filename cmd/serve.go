package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/shl-recommender/internal/catalog"
	"github.com/spigell/shl-recommender/internal/extract"
	"github.com/spigell/shl-recommender/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over http",
	Run: func(cmd *cobra.Command, args []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("index", catalog.DefaultIndexPath, "path of the embedding index")
	serveCmd.Flags().StringP("listen", "l", defaultListen, "address to listen on")
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	config := mustConfig(logger)

	logger.Info("starting the recommendation server", zap.String("version", version))

	debugConfig(logger, config)

	index, recommender := mustRecommender(ctx, cmd, config, logger)
	logger.Info("index loaded",
		zap.String("provider", index.Provider),
		zap.String("model", index.Model),
		zap.Int("items", index.Len()),
	)

	var configListen string
	if config.Server != nil {
		configListen = config.Server.Listen
	}
	listen := stringFlagOrConfig(cmd, "listen", configListen)

	srv := server.New(recommender, index, extract.New(logger), logger)

	if err := srv.Start(ctx, listen); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "server stopped"))
}
