// Package main provides the spacebio CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matsen/spacebio/internal/config"
	"github.com/matsen/spacebio/internal/dataset"
	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/observability"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors hides cobra's own message, e.g. for a missing argument.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "spacebio",
	Short: "Semantic search and knowledge graph for space biology publications",
	Long: `spacebio serves a corpus of space biology publications.

It searches publications by meaning using pre-computed embeddings, and
builds a knowledge graph of publications, authors, journals, themes and
keywords with centrality and path queries. The same operations are
available over the HTTP API started by 'spacebio serve'.

All commands output JSON by default; use --human for readable text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to start searching for a repository.
func getStartingDirectory() (string, int) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindRepository finds the repository and loads its .env file, exits on error.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(start)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'spacebio init' to create one, or set %s.", err, config.RootEnv)
	}
	if err := config.LoadEnv(repoRoot); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return repoRoot
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newLogger builds the stderr logger. Commands stay quiet at warn level
// unless --verbose is given; serve uses the configured level.
func newLogger(cfg *config.Config, quiet bool) zerolog.Logger {
	lc := observability.DefaultLoggingConfig()
	if cfg != nil {
		lc.Level = cfg.Logging.Level
		lc.Format = cfg.Logging.Format
	}
	if humanOutput {
		lc.Format = "console"
	}
	if quiet {
		lc.Level = "warn"
	}
	if verbose {
		lc.Level = "debug"
	}
	return observability.NewLogger(lc)
}

// loadSnapshot reads publications, embeddings and the derived graph.
func loadSnapshot(ctx context.Context, repoRoot string, cfg *config.Config, logger zerolog.Logger) (*dataset.Snapshot, error) {
	return dataset.Load(ctx, snapshotOptions(repoRoot, cfg, logger))
}

// snapshotOptions locates the snapshot inputs of a repository.
func snapshotOptions(repoRoot string, cfg *config.Config, logger zerolog.Logger) dataset.Options {
	return dataset.Options{
		PublicationsPath: cfg.PublicationsPath(repoRoot),
		EmbeddingsPath:   cfg.EmbeddingsPath(repoRoot),
		CachePath:        config.IndexCachePath(repoRoot),
		Logger:           logger,
	}
}

// mustLoadSnapshot loads the snapshot, exits on error.
// The caller is responsible for calling Close() on the returned snapshot.
func mustLoadSnapshot(ctx context.Context, repoRoot string, cfg *config.Config, logger zerolog.Logger) *dataset.Snapshot {
	snap, err := loadSnapshot(ctx, repoRoot, cfg, logger)
	if err != nil {
		exitWithError(exitCodeFor(err), "loading data: %v", err)
	}
	return snap
}

// providerSettings maps configuration onto embedding provider settings.
func providerSettings(cfg *config.Config) embedding.Settings {
	return embedding.Settings{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		BaseURL:    cfg.Embedding.BaseURL,
		TaskType:   cfg.Embedding.TaskType,
		Timeout:    cfg.Embedding.Timeout.Std(),
		APIKey:     config.APIKey(),
	}
}

// mustNewProvider creates the configured embedding provider, exits on error.
func mustNewProvider(ctx context.Context, cfg *config.Config) embedding.Provider {
	provider, err := embedding.New(ctx, providerSettings(cfg))
	if err != nil {
		if errors.Is(err, embedding.ErrMissingAPIKey) {
			exitWithError(ExitConfigError, "%v\n\nSet %s in the environment or in %s.", err, config.APIKeyEnv, config.EnvFile)
		}
		exitWithError(ExitConfigError, "creating embedding provider: %v", err)
	}
	return provider
}
