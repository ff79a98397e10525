package main

import (
	"context"
	"fmt"

	"github.com/matsen/spacebio/internal/publication"
	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listOffset int
)

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", DefaultListLimit, "Maximum results to return (0 = all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Number of publications to skip")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List publications",
	Long: `List publications in index order.

Examples:
  spacebio list
  spacebio list --limit 0
  spacebio list --offset 100 --limit 50`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	if listOffset < 0 || listLimit < 0 {
		exitWithError(ExitError, "--offset and --limit must not be negative")
	}

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	snap := mustLoadSnapshot(context.Background(), repoRoot, cfg, newLogger(cfg, true))
	defer snap.Close()

	pubs, err := snap.Catalog.ListAll(listOffset, listLimit)
	if err != nil {
		exitWithError(ExitError, "listing publications: %v", err)
	}
	total := len(snap.Publications)

	if humanOutput {
		if len(pubs) == 0 {
			fmt.Println("No publications")
			return nil
		}
		if len(pubs) < total {
			fmt.Printf("%d publications (showing %d from offset %d):\n\n", total, len(pubs), listOffset)
		} else {
			fmt.Printf("%d publications:\n\n", total)
		}
		for _, p := range pubs {
			printPublicationLine(p)
		}
	} else {
		if pubs == nil {
			pubs = []publication.Publication{}
		}
		outputJSON(pubs)
	}

	return nil
}
