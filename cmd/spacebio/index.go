package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matsen/spacebio/internal/config"
	"github.com/matsen/spacebio/internal/semantic"
	"github.com/matsen/spacebio/internal/storage"
	"github.com/spf13/cobra"
)

var (
	noProgress      bool
	continueOnError bool
	indexRate       float64
)

// maxListedIDs caps the ID lists in index output.
const maxListedIDs = 10

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexCheckCmd)

	indexBuildCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
	indexBuildCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Skip publications the provider fails on instead of aborting")
	indexBuildCmd.Flags().Float64Var(&indexRate, "rate", 0, "Provider requests per second (default from embedding.requests_per_second)")
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage publication embeddings",
	Long:  `Commands for building and checking the publication embeddings used by semantic search.`,
}

// IndexBuildResult is the response for index build command.
type IndexBuildResult struct {
	Status          string  `json:"status"`
	Indexed         int     `json:"publications_indexed"`
	Skipped         int     `json:"publications_skipped"`
	Failed          []int   `json:"failed_ids,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Model           string  `json:"model"`
	Dimensions      int     `json:"dimensions"`
	Path            string  `json:"path"`
	SizeBytes       int64   `json:"size_bytes"`
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build or rebuild the embeddings file",
	Long: `Embed every publication with the configured provider and write the
embeddings file (data.embeddings) plus the binary cache used at startup.

Each publication is embedded from its title, summary, impact, keywords and
theme. Publications with none of these are skipped. Requests are paced by
embedding.requests_per_second.`,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg, true)

	outPath := cfg.EmbeddingsPath(repoRoot)
	if outPath == "" {
		exitWithError(ExitConfigError, "data.embeddings is not set\n\nRun 'spacebio config set data.embeddings <path>'.")
	}

	pubs, err := storage.ReadPublications(cfg.PublicationsPath(repoRoot))
	if err != nil {
		exitWithError(exitCodeFor(err), "reading publications: %v", err)
	}

	provider := mustNewProvider(ctx, cfg)

	rate := cfg.Embedding.RequestsPerSecond
	if cmd.Flags().Changed("rate") {
		rate = indexRate
	}
	opts := []semantic.BuilderOption{
		semantic.WithRate(rate),
		semantic.WithContinueOnError(continueOnError),
		semantic.WithBuildLogger(logger),
	}
	showProgress := humanOutput && !noProgress
	if showProgress {
		opts = append(opts, semantic.WithProgress(semantic.ProgressFunc(printProgress)))
		fmt.Fprintf(os.Stderr, "Embedding %d publications with %s...\n", len(pubs), provider.ModelName())
	}

	idx, stats, err := semantic.NewBuilder(provider, opts...).Build(ctx, pubs)
	if showProgress {
		fmt.Fprintf(os.Stderr, "\r%s\r", "                                                  ")
	}
	if err != nil {
		exitWithError(exitCodeFor(err), "building embeddings: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		exitWithError(ExitError, "creating output directory: %v", err)
	}
	if err := semantic.WriteEmbeddingsFile(outPath, idx); err != nil {
		exitWithError(ExitError, "writing embeddings: %v", err)
	}
	cachePath := config.IndexCachePath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		logger.Warn().Err(err).Msg("creating cache directory")
	} else if err := idx.Save(cachePath); err != nil {
		logger.Warn().Err(err).Msg("writing index cache")
	}

	var size int64
	if info, err := os.Stat(outPath); err == nil {
		size = info.Size()
	}

	if humanOutput {
		fmt.Printf("\nBuild complete:\n")
		fmt.Printf("  Publications indexed: %d\n", stats.Indexed)
		fmt.Printf("  Publications skipped: %d (no content)\n", len(stats.Skipped))
		if len(stats.Failed) > 0 {
			fmt.Printf("  Publications failed:  %d\n", len(stats.Failed))
		}
		fmt.Printf("  Time elapsed: %s\n", formatDuration(stats.Duration))
		fmt.Printf("  Output: %s (%s)\n", outPath, formatBytes(size))
		fmt.Printf("  Model: %s\n", idx.ModelName)
	} else {
		outputJSON(IndexBuildResult{
			Status:          "complete",
			Indexed:         stats.Indexed,
			Skipped:         len(stats.Skipped),
			Failed:          stats.Failed,
			DurationSeconds: stats.Duration.Seconds(),
			Model:           idx.ModelName,
			Dimensions:      idx.Dimensions,
			Path:            outPath,
			SizeBytes:       size,
		})
	}

	return nil
}

// IndexCheckResult is the response for index check command.
type IndexCheckResult struct {
	Status              string `json:"status"`
	PublicationsTotal   int    `json:"publications_total"`
	PublicationsContent int    `json:"publications_with_content"`
	Indexed             int    `json:"publications_indexed"`
	Missing             int    `json:"publications_missing"`
	MissingIDs          []int  `json:"missing_ids,omitempty"`
	Orphaned            int    `json:"orphaned_embeddings"`
	OrphanedIDs         []int  `json:"orphaned_ids,omitempty"`
	Model               string `json:"model,omitempty"`
	Dimensions          int    `json:"dimensions"`
	FileModified        string `json:"file_modified"`
	SizeBytes           int64  `json:"size_bytes"`
	Recommendation      string `json:"recommendation,omitempty"`
}

var indexCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check embeddings coverage",
	Long: `Compare the embeddings file with the publications file.

Reports publications with content but no embedding, and embeddings whose
publication index is not in the publications file. Exits with status 6 when
publications are missing.`,
	RunE: runIndexCheck,
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	pubs, err := storage.ReadPublications(cfg.PublicationsPath(repoRoot))
	if err != nil {
		exitWithError(exitCodeFor(err), "reading publications: %v", err)
	}

	path := cfg.EmbeddingsPath(repoRoot)
	idx, err := semantic.ReadEmbeddingsFile(path)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v\n\nRun 'spacebio index build' to create the embeddings.", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	known := make(map[int]bool, len(pubs))
	for _, p := range pubs {
		known[p.ID] = true
	}
	orphaned := idx.Restrict(func(id int) bool { return known[id] })

	withContent := 0
	var missing []int
	for _, p := range pubs {
		if !p.HasContent() {
			continue
		}
		withContent++
		if !idx.Has(p.ID) {
			missing = append(missing, p.ID)
		}
	}

	status := "healthy"
	var recommendation string
	exitCode := ExitSuccess
	if len(missing) > 0 {
		status = "stale"
		recommendation = "Run 'spacebio index build' to update the embeddings"
		exitCode = ExitIndexStale
	}

	result := IndexCheckResult{
		Status:              status,
		PublicationsTotal:   len(pubs),
		PublicationsContent: withContent,
		Indexed:             idx.Len(),
		Missing:             len(missing),
		MissingIDs:          firstN(missing, maxListedIDs),
		Orphaned:            len(orphaned),
		OrphanedIDs:         firstN(orphaned, maxListedIDs),
		Model:               idx.ModelName,
		Dimensions:          idx.Dimensions,
		FileModified:        info.ModTime().UTC().Format(time.RFC3339),
		SizeBytes:           info.Size(),
		Recommendation:      recommendation,
	}

	if humanOutput {
		fmt.Printf("Embeddings Status: %s\n\n", status)
		fmt.Printf("Publications:\n")
		fmt.Printf("  Total: %d\n", result.PublicationsTotal)
		fmt.Printf("  With content: %d\n", result.PublicationsContent)
		fmt.Printf("  Embedded: %d\n", result.Indexed)
		fmt.Printf("  Missing: %d\n", result.Missing)
		fmt.Printf("  Orphaned embeddings: %d\n", result.Orphaned)
		fmt.Printf("\nFile:\n")
		fmt.Printf("  Path: %s\n", path)
		if result.Model != "" {
			fmt.Printf("  Model: %s\n", result.Model)
		}
		fmt.Printf("  Dimensions: %d\n", result.Dimensions)
		fmt.Printf("  Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		fmt.Printf("  Size: %s\n", formatBytes(result.SizeBytes))
		if recommendation != "" {
			fmt.Printf("\n%s\n", recommendation)
		}
	} else {
		outputJSON(result)
	}

	if exitCode != ExitSuccess {
		os.Exit(exitCode)
	}
	return nil
}

// firstN returns at most n leading elements of ids.
func firstN(ids []int, n int) []int {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}
