package graph

// Export is the full graph serialized for clients and files.
type Export struct {
	Nodes      []Node     `json:"nodes"`
	Edges      []Edge     `json:"edges"`
	Statistics Statistics `json:"statistics"`
}

// ToExport returns every node, every edge and the graph statistics.
func (g *Graph) ToExport() Export {
	if g == nil {
		return Export{Nodes: []Node{}, Edges: []Edge{}, Statistics: ComputeStatistics(nil)}
	}
	return Export{
		Nodes:      g.Nodes(),
		Edges:      g.Edges(),
		Statistics: ComputeStatistics(g),
	}
}
