package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/lookup"
	"github.com/matsen/spacebio/internal/publication"
	"github.com/matsen/spacebio/internal/semantic"
	"github.com/spf13/cobra"
)

var (
	searchLimit      int
	searchFullText   bool
	searchNoFallback bool
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", lookup.DefaultLimit, "Maximum results to return")
	searchCmd.Flags().BoolVar(&searchFullText, "fts", false, "Use full-text matching (word prefixes) instead of substring matching")
	searchCmd.Flags().BoolVar(&searchNoFallback, "no-fallback", false, "Do not fall back to semantic search when nothing matches")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search publications by keyword",
	Long: `Search publications by keyword.

Query Syntax:
  Plain text     - Substring match on title, abstract, summary, keywords and authors
  author:name    - Search author names only (word prefix)

When a plain query matches nothing and embeddings plus an embedding provider
are available, the query is retried as a semantic search and the response's
search_type is "semantic".

Examples:
  spacebio search "bone loss"
  spacebio search --fts "microgravity muscle"
  spacebio search "author:Smith"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// fieldSearcher adapts the catalog's author and full-text queries to lookup.KeywordSearcher.
type fieldSearcher func(query string, limit int) ([]publication.Publication, error)

func (f fieldSearcher) Search(query string, limit int) ([]publication.Publication, error) {
	return f(query, limit)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg, true)

	snap := mustLoadSnapshot(ctx, repoRoot, cfg, logger)
	defer snap.Close()

	query := args[0]
	var keyword lookup.KeywordSearcher = snap.Catalog
	fallback := !searchNoFallback
	switch {
	case strings.HasPrefix(query, "author:"):
		query = strings.TrimPrefix(query, "author:")
		keyword = fieldSearcher(snap.Catalog.SearchAuthor)
		fallback = false
	case searchFullText:
		keyword = fieldSearcher(snap.Catalog.SearchFullText)
	}

	opts := []lookup.Option{lookup.WithThreshold(cfg.Search.Threshold), lookup.WithLogger(logger)}
	if fallback && snap.HasEmbeddings() {
		if provider, err := embedding.New(ctx, providerSettings(cfg)); err != nil {
			logger.Debug().Err(err).Msg("semantic fallback disabled")
		} else if searcher, err := semantic.NewSearcher(provider, snap.Index, snap,
			semantic.WithTimeout(cfg.Search.Timeout.Std()),
			semantic.WithLogger(logger),
		); err == nil {
			opts = append(opts, lookup.WithSemantic(searcher))
		}
	}
	finder := lookup.NewFinder(keyword, opts...)

	resp, err := finder.Find(ctx, query, searchLimit)
	if err != nil {
		exitWithError(exitCodeFor(err), "searching: %v", err)
	}

	if humanOutput {
		if resp.Total == 0 {
			fmt.Println("No publications found")
			return nil
		}
		fmt.Printf("Found %d publications (%s):\n\n", resp.Total, resp.SearchType)
		for i, m := range resp.Results {
			score := ""
			if m.Score != nil {
				score = fmt.Sprintf("[%.2f] ", *m.Score)
			}
			fmt.Printf("%d. %s#%d\n", i+1, score, m.ID)
			fmt.Printf("   %s\n", truncateString(m.Title, SearchTitleMaxLen))
			fmt.Printf("   %s%s\n\n", publication.FormatAuthorsShort(m.Authors, 3), yearSuffix(m.PublicationDate))
		}
	} else {
		outputJSON(resp)
	}

	return nil
}
