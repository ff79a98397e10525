package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/matsen/spacebio/internal/semantic"
	"github.com/spf13/cobra"
)

var (
	semanticLimit     int
	semanticThreshold float32
)

func init() {
	rootCmd.AddCommand(semanticCmd)

	semanticCmd.Flags().IntVarP(&semanticLimit, "limit", "l", 0, "Maximum number of results (default from search.limit)")
	semanticCmd.Flags().Float32VarP(&semanticThreshold, "threshold", "t", -1, "Minimum similarity threshold 0.0-1.0 (default from search.threshold)")
}

// SemanticResponse is the response for the semantic search command.
type SemanticResponse struct {
	Query      string              `json:"query"`
	Results    []PublicationResult `json:"results"`
	TotalFound int                 `json:"total_found"`
	SearchType string              `json:"search_type"`
	Threshold  float32             `json:"min_similarity_threshold"`
	Model      string              `json:"model"`
}

var semanticCmd = &cobra.Command{
	Use:   "semantic <query>",
	Short: "Search publications by semantic similarity",
	Long: `Search publications by meaning rather than exact words.

The query is embedded with the configured provider and compared against the
pre-computed publication embeddings by cosine similarity. Results at or above
the threshold are returned, best first.

Requires an embeddings file (see 'spacebio index build') and, for Gemini,
GOOGLE_AI_API_KEY in the environment or .env.`,
	Args: cobra.ExactArgs(1),
	RunE: runSemantic,
}

func runSemantic(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.TrimSpace(args[0])

	if query == "" {
		exitWithError(ExitError, "Search query cannot be empty")
	}

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg, true)

	limit := cfg.Search.Limit
	if semanticLimit != 0 {
		limit = semanticLimit
	}
	threshold := cfg.Search.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold = semanticThreshold
	}
	// Reject bad arguments before loading data or calling the provider.
	if err := semantic.ValidateRequest(limit, threshold); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	snap := mustLoadSnapshot(ctx, repoRoot, cfg, logger)
	defer snap.Close()
	if !snap.HasEmbeddings() {
		exitWithError(ExitConfigError, "Embeddings not found at %s\n\nRun 'spacebio index build' to create them.", cfg.EmbeddingsPath(repoRoot))
	}

	provider := mustNewProvider(ctx, cfg)
	searcher, err := semantic.NewSearcher(provider, snap.Index, snap,
		semantic.WithTimeout(cfg.Search.Timeout.Std()),
		semantic.WithLogger(logger),
	)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	hits, err := searcher.Search(ctx, query, limit, threshold)
	if err != nil {
		exitWithError(exitCodeFor(err), "searching: %v", err)
	}
	results := buildResults(hits, true)

	if humanOutput {
		fmt.Printf("Search: \"%s\"\n", query)
		fmt.Printf("Found %d publications (threshold: %.2f)\n\n", len(results), threshold)
		printResultsHuman(results)
	} else {
		outputJSON(SemanticResponse{
			Query:      query,
			Results:    results,
			TotalFound: len(results),
			SearchType: "semantic",
			Threshold:  threshold,
			Model:      searcher.ModelName(),
		})
	}

	return nil
}
