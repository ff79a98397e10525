package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/matsen/spacebio/internal/graph"
	"github.com/matsen/spacebio/internal/storage"
	"github.com/spf13/cobra"
)

var (
	centralityKind  string
	centralityLimit int
	networkDepth    int
	minCoOccurrence int
	findType        string
	findLimit       int
	exportOutput    string
)

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphStatsCmd)
	graphCmd.AddCommand(graphCentralityCmd)
	graphCmd.AddCommand(graphAuthorCmd)
	graphCmd.AddCommand(graphNetworkCmd)
	graphCmd.AddCommand(graphThemeCmd)
	graphCmd.AddCommand(graphKeywordCmd)
	graphCmd.AddCommand(graphFindCmd)
	graphCmd.AddCommand(graphPathCmd)
	graphCmd.AddCommand(graphExportCmd)

	graphCentralityCmd.Flags().StringVarP(&centralityKind, "kind", "k", string(graph.Degree), "Centrality measure: degree, betweenness or closeness")
	graphCentralityCmd.Flags().IntVarP(&centralityLimit, "limit", "l", 10, "Number of top nodes")
	graphNetworkCmd.Flags().IntVar(&networkDepth, "depth", graph.DefaultNetworkDepth, "Co-author hops to follow")
	graphKeywordCmd.Flags().IntVar(&minCoOccurrence, "min", graph.DefaultMinCoOccurrence, "Minimum shared publications")
	graphFindCmd.Flags().StringVarP(&findType, "type", "t", "", "Restrict to a node type: publication, author, journal, theme, keyword")
	graphFindCmd.Flags().IntVarP(&findLimit, "limit", "l", graph.DefaultSearchLimit, "Maximum results")
	graphExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: stdout)")

	kinds := make([]string, len(graph.Kinds))
	for i, k := range graph.Kinds {
		kinds[i] = string(k)
	}
	types := make([]string, len(graph.NodeTypes))
	for i, t := range graph.NodeTypes {
		types[i] = string(t)
	}
	registerChoices(graphCentralityCmd, "kind", kinds)
	registerChoices(graphFindCmd, "type", types)
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Query the knowledge graph",
	Long: `Query the knowledge graph built from the publications.

Nodes are publications (pub_<index>), authors, journals, themes and keywords
(<type>_<lowercased name with spaces as underscores>). Edges are authored_by,
published_in, has_theme, has_keyword and co_authors.`,
}

var graphStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph statistics",
	Args:  cobra.NoArgs,
	RunE:  runGraphStats,
}

var graphCentralityCmd = &cobra.Command{
	Use:   "centrality",
	Short: "Rank nodes by centrality",
	Long: `Rank nodes by degree, betweenness or closeness centrality.

Degree counts every edge. Betweenness and closeness treat the graph as simple
and undirected and are computed within each connected component.`,
	Args: cobra.NoArgs,
	RunE: runGraphCentrality,
}

var graphAuthorCmd = &cobra.Command{
	Use:   "author <name>",
	Short: "Show an author's publications and co-authors",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphAuthor,
}

var graphNetworkCmd = &cobra.Command{
	Use:   "network <author>",
	Short: "Show an author's collaboration network",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphNetwork,
}

var graphThemeCmd = &cobra.Command{
	Use:   "theme <name>",
	Short: "Show a theme's publications and related themes",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphTheme,
}

var graphKeywordCmd = &cobra.Command{
	Use:   "keyword <keyword>",
	Short: "Show keywords co-occurring with a keyword",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphKeyword,
}

var graphFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Find nodes whose label contains the query",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphFind,
}

var graphPathCmd = &cobra.Command{
	Use:   "path <source-id> <target-id>",
	Short: "Find a shortest path between two nodes",
	Long: `Find a shortest path between two node IDs.

Example:
  spacebio graph path author_jane_doe theme_bone_health`,
	Args: cobra.ExactArgs(2),
	RunE: runGraphPath,
}

var graphExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all nodes, edges and statistics as JSON",
	Args:  cobra.NoArgs,
	RunE:  runGraphExport,
}

// CentralityResponse is the response for graph centrality.
type CentralityResponse struct {
	Kind            graph.Kind    `json:"kind"`
	Results         []graph.Score `json:"results"`
	DurationSeconds float64       `json:"duration_seconds"`
}

// FindResponse is the response for graph find.
type FindResponse struct {
	Query      string          `json:"query"`
	Results    []graph.NodeRef `json:"results"`
	TotalFound int             `json:"total_found"`
}

// mustLoadGraph builds the knowledge graph from the publications file, exits on error.
// Embeddings are not needed for graph queries, so the full snapshot is not loaded.
func mustLoadGraph() *graph.Graph {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	pubs, err := storage.ReadPublications(cfg.PublicationsPath(repoRoot))
	if err != nil {
		exitWithError(exitCodeFor(err), "reading publications: %v", err)
	}
	return graph.Build(pubs)
}

// exitOnGraphError exits with a message suited to err.
func exitOnGraphError(err error) {
	exitWithError(exitCodeFor(err), "%v", err)
}

func runGraphStats(cmd *cobra.Command, args []string) error {
	stats := graph.ComputeStatistics(mustLoadGraph())

	if !humanOutput {
		outputJSON(stats)
		return nil
	}

	fmt.Printf("Knowledge graph: %d nodes, %d edges\n\n", stats.TotalNodes, stats.TotalEdges)
	fmt.Println("Nodes:")
	for _, t := range graph.NodeTypes {
		fmt.Printf("  %-12s %d\n", t, stats.NodeTypes[t])
	}
	fmt.Println("\nEdges:")
	for _, r := range graph.Relations {
		fmt.Printf("  %-14s %d\n", r, stats.EdgeTypes[r])
	}
	printCounts("Most connected authors", stats.MostConnectedAuthors)
	printCounts("Most productive journals", stats.MostProductiveJournals)
	printCounts("Themes", stats.ThemeDistribution)

	c := stats.Collaboration
	fmt.Println("\nCollaboration network:")
	fmt.Printf("  Authors: %d\n", c.TotalAuthors)
	fmt.Printf("  Connected components: %d\n", c.ConnectedComponents)
	fmt.Printf("  Largest component: %d\n", c.LargestComponentSize)
	fmt.Printf("  Average clustering: %.3f\n", c.AverageClustering)
	return nil
}

func printCounts(title string, counts []graph.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, c := range counts {
		fmt.Printf("  %4d  %s\n", c.Count, truncateString(c.Label, SearchTitleMaxLen))
	}
}

func runGraphCentrality(cmd *cobra.Command, args []string) error {
	kind, err := graph.ParseKind(centralityKind)
	if err != nil {
		exitOnGraphError(err)
	}
	g := mustLoadGraph()

	start := time.Now()
	scores, err := graph.Centrality(g, kind, centralityLimit)
	if err != nil {
		exitOnGraphError(err)
	}
	elapsed := time.Since(start)

	if humanOutput {
		fmt.Printf("Top %d nodes by %s centrality (%s):\n\n", len(scores), kind, formatDuration(elapsed))
		for i, s := range scores {
			fmt.Printf("%2d. %.4f  %-12s %s\n", i+1, s.Score, s.Type, truncateString(s.Label, ListTitleMaxLen))
		}
	} else {
		outputJSON(CentralityResponse{Kind: kind, Results: scores, DurationSeconds: elapsed.Seconds()})
	}
	return nil
}

func runGraphAuthor(cmd *cobra.Command, args []string) error {
	info, err := mustLoadGraph().Author(args[0])
	if err != nil {
		exitOnGraphError(err)
	}

	if !humanOutput {
		outputJSON(info)
		return nil
	}
	fmt.Printf("%s\n", info.Author.Label)
	fmt.Printf("%d publications, %d co-authors\n\n", info.PublicationCount, info.CoAuthorCount)
	printRefs(info.Publications)
	if len(info.CoAuthors) > 0 {
		fmt.Printf("\nCo-authors:\n  %s\n", wrapText(strings.Join(info.CoAuthors, ", "), DetailTextWrapWidth, "  "))
	}
	return nil
}

func runGraphNetwork(cmd *cobra.Command, args []string) error {
	network, err := mustLoadGraph().CollaborationNetwork(args[0], networkDepth)
	if err != nil {
		exitOnGraphError(err)
	}

	if !humanOutput {
		outputJSON(network)
		return nil
	}
	fmt.Printf("Collaboration network of %s (depth %d): %d authors, %d links\n\n",
		network.Author.Label, network.Depth, len(network.Nodes), len(network.Edges))
	printRefs(network.Nodes)
	return nil
}

func runGraphTheme(cmd *cobra.Command, args []string) error {
	info, err := mustLoadGraph().ThemeConnections(args[0])
	if err != nil {
		exitOnGraphError(err)
	}

	if !humanOutput {
		outputJSON(info)
		return nil
	}
	fmt.Printf("%s: %d publications\n\n", info.Theme.Label, info.PublicationCount)
	printRefs(info.Publications)
	printCounts("Related themes", info.RelatedThemes)
	return nil
}

func runGraphKeyword(cmd *cobra.Command, args []string) error {
	info, err := mustLoadGraph().KeywordCoOccurrence(args[0], minCoOccurrence)
	if err != nil {
		exitOnGraphError(err)
	}

	if !humanOutput {
		outputJSON(info)
		return nil
	}
	fmt.Printf("%s: %d publications\n", info.Keyword.Label, info.TotalPublications)
	if len(info.CoOccurring) == 0 {
		fmt.Printf("\nNo keywords share %d or more publications\n", info.MinCoOccurrence)
		return nil
	}
	printCounts(fmt.Sprintf("Co-occurring keywords (min %d)", info.MinCoOccurrence), info.CoOccurring)
	return nil
}

func runGraphFind(cmd *cobra.Command, args []string) error {
	var nodeType graph.NodeType
	if findType != "" {
		t, err := graph.ParseNodeType(findType)
		if err != nil {
			exitOnGraphError(err)
		}
		nodeType = t
	}

	results, total, err := mustLoadGraph().SearchNodes(args[0], nodeType, findLimit)
	if err != nil {
		exitOnGraphError(err)
	}
	if results == nil {
		results = []graph.NodeRef{}
	}

	if humanOutput {
		if total == 0 {
			fmt.Println("No nodes found")
			return nil
		}
		fmt.Printf("Found %d nodes (showing %d):\n\n", total, len(results))
		printRefs(results)
	} else {
		outputJSON(FindResponse{Query: strings.TrimSpace(args[0]), Results: results, TotalFound: total})
	}
	return nil
}

func runGraphPath(cmd *cobra.Command, args []string) error {
	path, err := mustLoadGraph().ShortestPath(args[0], args[1])
	if err != nil {
		exitOnGraphError(err)
	}

	if !humanOutput {
		outputJSON(path)
		return nil
	}
	fmt.Printf("Path of length %d:\n\n", path.Length)
	for i, n := range path.Nodes {
		fmt.Printf("  %d. [%s] %s\n", i+1, n.Type, truncateString(n.Label, ListTitleMaxLen))
	}
	return nil
}

func runGraphExport(cmd *cobra.Command, args []string) error {
	export := mustLoadGraph().ToExport()

	if exportOutput == "" {
		outputJSON(export)
		return nil
	}
	if err := storage.WriteJSON(exportOutput, export); err != nil {
		exitWithError(ExitError, "writing export: %v", err)
	}
	if humanOutput {
		fmt.Printf("Graph written to %s (%d nodes, %d edges)\n", exportOutput, len(export.Nodes), len(export.Edges))
	} else {
		outputJSON(StatusResponse{Status: "exported", Path: exportOutput})
	}
	return nil
}

func printRefs(refs []graph.NodeRef) {
	for _, r := range refs {
		fmt.Printf("  %-12s %s\n", r.Type, truncateString(r.Label, ListTitleMaxLen))
	}
}
