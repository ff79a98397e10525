package viz

import (
	"encoding/json"
	"fmt"
)

// element is one entry of the flat Cytoscape.js elements array.
type element struct {
	Group string `json:"group"` // "nodes" or "edges"
	Data  any    `json:"data"`
}

// edgeData is a rendered edge. Parallel edges between the same pair with the
// same relation are drawn once, with Count holding the multiplicity.
type edgeData struct {
	ID               string `json:"id"`
	Source           string `json:"source"`
	Target           string `json:"target"`
	RelationshipType string `json:"relationshipType"`
	Count            int    `json:"count"`
}

// ToCytoscapeJSON encodes the nodes and merged edges as a Cytoscape.js elements array.
func (g *GraphData) ToCytoscapeJSON() (string, error) {
	elements := make([]element, 0, len(g.Nodes)+len(g.Edges))
	for _, n := range g.Nodes {
		elements = append(elements, element{Group: "nodes", Data: n})
	}

	merged := make(map[string]*edgeData)
	var order []string
	for _, e := range g.Edges {
		id := edgeID(e.Source, e.Target, e.RelationshipType)
		if d, ok := merged[id]; ok {
			d.Count++
			continue
		}
		merged[id] = &edgeData{
			ID:               id,
			Source:           e.Source,
			Target:           e.Target,
			RelationshipType: e.RelationshipType,
			Count:            1,
		}
		order = append(order, id)
	}
	for _, id := range order {
		elements = append(elements, element{Group: "edges", Data: merged[id]})
	}

	out, err := json.Marshal(elements)
	if err != nil {
		return "", fmt.Errorf("encoding graph elements: %w", err)
	}
	return string(out), nil
}

// edgeID is direction-independent so a co-author pair seen from either side merges.
func edgeID(source, target, relation string) string {
	if target < source {
		source, target = target, source
	}
	return relation + ":" + source + "|" + target
}
