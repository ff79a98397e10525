package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/matsen/spacebio/internal/semantic"
	"github.com/spf13/cobra"
)

var similarLimit int

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntVarP(&similarLimit, "limit", "l", 10, "Maximum number of results")
}

// SimilarSource is the source publication for the similar response.
type SimilarSource struct {
	ID    int    `json:"index"`
	Title string `json:"title"`
}

// SimilarResponse is the response for the similar command.
type SimilarResponse struct {
	Source  SimilarSource       `json:"source"`
	Similar []PublicationResult `json:"similar"`
	Total   int                 `json:"total"`
	Model   string              `json:"model"`
}

var similarCmd = &cobra.Command{
	Use:   "similar <publication-index>",
	Short: "Find publications similar to a given one",
	Long: `Find publications whose stored embeddings are closest to a given publication's.

No embedding provider is needed: the source publication's vector is already in
the index. The source itself is excluded from results.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id, err := strconv.Atoi(args[0])
	if err != nil {
		exitWithError(ExitError, "publication index must be an integer, got %q", args[0])
	}

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	snap := mustLoadSnapshot(ctx, repoRoot, cfg, newLogger(cfg, true))
	defer snap.Close()

	source, ok := snap.Publication(id)
	if !ok {
		exitWithError(ExitNotFound, "Publication %d not found", id)
	}

	hits, err := snap.Similar(id, similarLimit)
	if err != nil {
		if errors.Is(err, semantic.ErrPublicationNotIndexed) {
			exitWithError(ExitNotFound, "Publication %d has no embedding\n\nRebuild embeddings with 'spacebio index build'.", id)
		}
		exitWithError(exitCodeFor(err), "finding similar publications: %v", err)
	}
	results := buildResults(hits, false)

	if humanOutput {
		fmt.Printf("Publications similar to: #%d\n", id)
		fmt.Printf("\"%s\"\n\n", truncateString(source.Title, DetailTitleMaxLen))
		printResultsHuman(results)
	} else {
		outputJSON(SimilarResponse{
			Source:  SimilarSource{ID: source.ID, Title: source.Title},
			Similar: results,
			Total:   len(results),
			Model:   snap.Index.ModelName,
		})
	}

	return nil
}
