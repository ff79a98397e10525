// Package viz renders the knowledge graph as an interactive Cytoscape.js page.
package viz

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	// Omitted counts nodes left out by the node cap.
	Omitted int `json:"omitted"`
}

// Node is a graph node with the fields shown in tooltips.
type Node struct {
	ID    string `json:"id"`
	Type  string `json:"type"` // publication, author, journal, theme or keyword
	Label string `json:"label"`

	// Publication-specific fields (for tooltips)
	Title   string `json:"title,omitempty"`
	Date    string `json:"date,omitempty"`
	URL     string `json:"url,omitempty"`

	// Weight counts referencing publications; Degree counts incident edges.
	Weight int `json:"weight"`
	Degree int `json:"degree"`
}

// Edge is an undirected relation between two rendered nodes.
type Edge struct {
	Source           string `json:"source"`
	Target           string `json:"target"`
	RelationshipType string `json:"relationshipType"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}
