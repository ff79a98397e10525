package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matsen/spacebio/internal/config"
	"github.com/matsen/spacebio/internal/dataset"
	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/observability"
	"github.com/matsen/spacebio/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddress         string
	serveNoEmbed         bool
	serveRequireSemantic bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddress, "address", "", "Listen address (default from server.address)")
	serveCmd.Flags().BoolVar(&serveNoEmbed, "no-semantic", false, "Serve without an embedding provider")
	serveCmd.Flags().BoolVar(&serveRequireSemantic, "require-semantic", false, "Refuse to start unless embeddings and a provider are available")
	serveCmd.MarkFlagsMutuallyExclusive("no-semantic", "require-semantic")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API over the publications, embeddings and knowledge graph.

The data is loaded once at startup. If the embeddings file is missing or no
API key is configured, the server still starts; semantic routes then answer
503 and keyword search does not fall back to semantic search. With
--require-semantic either condition stops startup instead.

Browser origins allowed by CORS come from server.cors_origins.

Prometheus metrics are served at /metrics. SIGINT or SIGTERM stops the
server gracefully.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg, false)

	opts := snapshotOptions(repoRoot, cfg, logger)
	opts.RequireEmbeddings = serveRequireSemantic
	snap, err := dataset.Load(ctx, opts)
	if err != nil {
		logger.Error().Err(err).Msg("loading data")
		exitWithError(exitCodeFor(err), "loading data: %v", err)
	}
	defer snap.Close()

	apiKey := config.APIKey()
	var provider embedding.Provider
	if !serveNoEmbed {
		provider, err = embedding.New(ctx, providerSettings(cfg))
		if err != nil {
			if serveRequireSemantic {
				logger.Error().Err(err).Msg("creating embedding provider")
				exitWithError(exitCodeFor(err), "creating embedding provider: %v", err)
			}
			logger.Warn().Err(err).Msg("embedding provider unavailable; semantic search disabled")
			provider = nil
		}
	}

	address := cfg.Server.Address
	if serveAddress != "" {
		address = serveAddress
	}

	srv, err := server.New(server.Config{
		Address:         address,
		ReadTimeout:     cfg.Server.ReadTimeout.Std(),
		WriteTimeout:    cfg.Server.WriteTimeout.Std(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
		CORSOrigins:     cfg.Server.CORSOrigins,
	}, server.Options{
		Snapshot: snap,
		Provider: provider,
		Metrics:  observability.NewMetrics(),
		Logger:   logger,
		Search: server.SearchDefaults{
			Limit:     cfg.Search.Limit,
			Threshold: cfg.Search.Threshold,
			Timeout:   cfg.Search.Timeout.Std(),
		},
		APIKeyAvailable: apiKey != "",
	})
	if err != nil {
		exitWithError(ExitError, "creating server: %v", err)
	}
	if serveRequireSemantic && !srv.SemanticEnabled() {
		exitWithError(ExitConfigError, "semantic search is unavailable and --require-semantic is set")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serving: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
