package graph

import "sort"

// topN bounds the author and journal rankings in Statistics.
const topN = 10

// Count pairs a node with a tally.
type Count struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CollaborationStats describes the author co-authorship network.
type CollaborationStats struct {
	TotalAuthors         int     `json:"total_authors"`
	ConnectedComponents  int     `json:"connected_components"`
	LargestComponentSize int     `json:"largest_component_size"`
	AverageClustering    float64 `json:"average_clustering"`
}

// Statistics summarizes a graph.
type Statistics struct {
	TotalNodes             int                `json:"total_nodes"`
	TotalEdges             int                `json:"total_edges"`
	NodeTypes              map[NodeType]int   `json:"node_types"`
	EdgeTypes              map[Relation]int   `json:"edge_types"`
	MostConnectedAuthors   []Count            `json:"most_connected_authors"`
	MostProductiveJournals []Count            `json:"most_productive_journals"`
	ThemeDistribution      []Count            `json:"theme_distribution"`
	Collaboration          CollaborationStats `json:"collaboration_network_stats"`
}

// ComputeStatistics summarizes g. An empty graph yields zero counts.
func ComputeStatistics(g *Graph) Statistics {
	stats := Statistics{
		TotalNodes: g.NodeCount(),
		TotalEdges: g.EdgeCount(),
		NodeTypes:  make(map[NodeType]int),
		EdgeTypes:  make(map[Relation]int),
	}
	if g == nil {
		return stats
	}

	for _, id := range g.ids {
		stats.NodeTypes[g.nodes[id].Type]++
	}

	coAuthorLinks := make(map[string]int)
	journalPubs := make(map[string]int)
	themePubs := make(map[string]int)
	for _, e := range g.edges {
		stats.EdgeTypes[e.Relation]++
		switch e.Relation {
		case RelCoAuthors:
			coAuthorLinks[e.Source]++
			coAuthorLinks[e.Target]++
		case RelPublishedIn:
			journalPubs[e.Target]++
		case RelHasTheme:
			themePubs[e.Target]++
		}
	}

	stats.MostConnectedAuthors = g.rank(coAuthorLinks, topN)
	stats.MostProductiveJournals = g.rank(journalPubs, topN)
	stats.ThemeDistribution = g.rank(themePubs, 0)
	stats.Collaboration = g.collaborationStats()
	return stats
}

// rank sorts tallies by count descending then ID, keeping at most n (all when n is 0).
func (g *Graph) rank(tally map[string]int, n int) []Count {
	out := make([]Count, 0, len(tally))
	for id, c := range tally {
		out = append(out, Count{ID: id, Label: g.nodes[id].Label, Count: c})
	}
	sortCounts(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sortCounts(counts []Count) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].ID < counts[j].ID
	})
}

// collaborationStats analyses the simple graph of authors joined by co_authors edges.
func (g *Graph) collaborationStats() CollaborationStats {
	var authors []string
	for _, id := range g.ids {
		if g.nodes[id].Type == NodeAuthor {
			authors = append(authors, id)
		}
	}
	if len(authors) == 0 {
		return CollaborationStats{}
	}

	coauthors := make(map[string]map[string]bool, len(authors))
	for _, a := range authors {
		coauthors[a] = make(map[string]bool)
	}
	for _, e := range g.edges {
		if e.Relation == RelCoAuthors {
			coauthors[e.Source][e.Target] = true
			coauthors[e.Target][e.Source] = true
		}
	}

	pos := make(map[string]int, len(authors))
	for i, a := range authors {
		pos[a] = i
	}
	adj := make([][]int, len(authors))
	for i, a := range authors {
		for b := range coauthors[a] {
			adj[i] = append(adj[i], pos[b])
		}
	}
	_, sizes := components(adj)

	largest := 0
	for _, s := range sizes {
		if s > largest {
			largest = s
		}
	}

	var clustering float64
	for _, a := range authors {
		clustering += localClustering(coauthors, a)
	}

	return CollaborationStats{
		TotalAuthors:         len(authors),
		ConnectedComponents:  len(sizes),
		LargestComponentSize: largest,
		AverageClustering:    clustering / float64(len(authors)),
	}
}

// localClustering is the fraction of pairs of v's neighbours that are adjacent.
// Nodes with fewer than two neighbours score 0.
func localClustering(adj map[string]map[string]bool, v string) float64 {
	nbrs := make([]string, 0, len(adj[v]))
	for n := range adj[v] {
		nbrs = append(nbrs, n)
	}
	k := len(nbrs)
	if k < 2 {
		return 0
	}
	links := 0
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if adj[nbrs[i]][nbrs[j]] {
				links++
			}
		}
	}
	return float64(2*links) / float64(k*(k-1))
}
