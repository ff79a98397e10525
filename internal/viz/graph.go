package viz

import (
	"sort"

	"github.com/matsen/spacebio/internal/graph"
)

// DefaultMaxNodes caps the rendered graph; larger graphs become unreadable.
const DefaultMaxNodes = 100

// FromGraph selects up to maxNodes nodes by descending degree (ties by ID)
// and keeps the edges between selected nodes. maxNodes <= 0 renders everything.
func FromGraph(g *graph.Graph, maxNodes int) *GraphData {
	nodes := g.Nodes()
	if maxNodes <= 0 || maxNodes > len(nodes) {
		maxNodes = len(nodes)
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		di, dj := g.Degree(nodes[i].ID), g.Degree(nodes[j].ID)
		if di != dj {
			return di > dj
		}
		return nodes[i].ID < nodes[j].ID
	})

	data := &GraphData{
		Nodes:   make([]Node, 0, maxNodes),
		Omitted: len(nodes) - maxNodes,
	}
	selected := make(map[string]bool, maxNodes)
	for _, n := range nodes[:maxNodes] {
		selected[n.ID] = true
		data.Nodes = append(data.Nodes, newNode(n, g.Degree(n.ID)))
	}

	for _, e := range g.Edges() {
		if selected[e.Source] && selected[e.Target] {
			data.Edges = append(data.Edges, Edge{
				Source:           e.Source,
				Target:           e.Target,
				RelationshipType: string(e.Relation),
			})
		}
	}
	return data
}

func newNode(n graph.Node, degree int) Node {
	node := Node{
		ID:     n.ID,
		Type:   string(n.Type),
		Label:  n.Label,
		Weight: n.Weight,
		Degree: degree,
	}
	if n.Type == graph.NodePublication {
		node.Title = n.Properties["title"]
		node.Date = n.Properties["publication_date"]
		node.URL = n.Properties["url"]
	}
	return node
}
