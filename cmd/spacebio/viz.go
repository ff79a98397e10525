package main

import (
	"fmt"
	"os"

	"github.com/matsen/spacebio/internal/viz"
	"github.com/spf13/cobra"
)

var (
	vizOutput   string
	vizLayout   string
	vizMaxNodes int
)

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizLayout, "layout", "force", "Layout algorithm: force, circle, or grid")
	vizCmd.Flags().IntVar(&vizMaxNodes, "max-nodes", viz.DefaultMaxNodes, "Keep only the most connected nodes (0 = all)")
	registerChoices(vizCmd, "layout", viz.ValidLayouts)
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Generate knowledge graph visualization",
	Long: `Generate an interactive HTML visualization of the knowledge graph.

Node colors indicate type:
  - red: publication
  - teal: author
  - blue: journal
  - green: theme
  - yellow: keyword

Large graphs are cut down to the --max-nodes most connected nodes; the page
notes how many were left out.

Examples:
  # Generate HTML to stdout
  spacebio viz > graph.html

  # Generate to file with a circular layout
  spacebio viz --layout circle --output graph.html

  # Include every node
  spacebio viz --max-nodes 0 --output full.html`,
	Args: cobra.NoArgs,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	g := mustLoadGraph()

	data := viz.FromGraph(g, vizMaxNodes)

	opts := viz.DefaultOptions()
	opts.Layout = vizLayout
	html, err := viz.GenerateHTML(data, opts)
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}

	if vizOutput == "" {
		fmt.Print(html)
		return nil
	}

	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		fmt.Printf("Visualization written to %s (%d nodes, %d omitted)\n", vizOutput, len(data.Nodes), data.Omitted)
	} else {
		outputJSON(StatusResponse{Status: "written", Path: vizOutput})
	}
	return nil
}
