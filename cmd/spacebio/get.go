package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/spacebio/internal/publication"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <publication-index>",
	Short: "Get a single publication by index",
	Long: `Get a single publication by its index.

Example:
  spacebio get 42`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		exitWithError(ExitError, "publication index must be an integer, got %q", args[0])
	}

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	snap := mustLoadSnapshot(context.Background(), repoRoot, cfg, newLogger(cfg, true))
	defer snap.Close()

	pub, err := snap.Catalog.GetByID(id)
	if err != nil {
		exitWithError(ExitError, "getting publication: %v", err)
	}
	if pub == nil {
		exitWithError(ExitNotFound, "publication not found: %d", id)
	}

	if humanOutput {
		printPublicationDetail(*pub)
	} else {
		outputJSON(pub)
	}

	return nil
}

func printPublicationDetail(p publication.Publication) {
	fmt.Printf("#%d\n", p.ID)
	fmt.Println(strings.Repeat("═", 70))
	fmt.Println()

	fmt.Printf("Title:    %s\n", wrapText(p.Title, TextWrapWidth, "          "))
	fmt.Println()

	if len(p.Authors) > 0 {
		fmt.Printf("Authors:  %s\n", wrapText(strings.Join(p.Authors, ", "), TextWrapWidth, "          "))
		fmt.Println()
	}

	if p.Journal != "" {
		fmt.Printf("Journal:  %s\n", p.Journal)
	}
	if p.PublicationDate != "" {
		fmt.Printf("Date:     %s\n", p.PublicationDate)
	}
	if p.Theme != "" {
		fmt.Printf("Theme:    %s\n", p.Theme)
	}
	if p.DOI != "" {
		fmt.Printf("DOI:      %s\n", p.DOI)
	}
	if p.URL != "" {
		fmt.Printf("URL:      %s\n", p.URL)
	}
	if len(p.Keywords) > 0 {
		fmt.Printf("Keywords: %s\n", wrapText(strings.Join(p.Keywords, ", "), TextWrapWidth, "          "))
	}

	for _, section := range []struct{ label, text string }{
		{"Summary", p.Summary},
		{"Impact", p.Impact},
		{"Abstract", p.Abstract},
	} {
		if section.text == "" {
			continue
		}
		fmt.Println()
		fmt.Printf("%s:\n", section.label)
		fmt.Printf("  %s\n", wrapText(section.text, DetailTextWrapWidth, "  "))
	}
}
