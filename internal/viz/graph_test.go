package viz

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matsen/spacebio/internal/graph"
	"github.com/matsen/spacebio/internal/publication"
)

func testGraph() *graph.Graph {
	return graph.Build([]publication.Publication{
		{ID: 0, Title: "Bone loss in mice", Authors: []string{"Jane Doe", "Ann Lee"}, Theme: "Bone", Keywords: []string{"bone"}, PublicationDate: "2020-01-02"},
		{ID: 1, Title: "Muscle in orbit", Authors: []string{"Jane Doe"}, Theme: "Muscle", Keywords: []string{"muscle", "bone"}},
	})
}

func TestFromGraph_All(t *testing.T) {
	g := testGraph()
	data := FromGraph(g, 0)

	if len(data.Nodes) != g.NodeCount() {
		t.Errorf("len(Nodes) = %d, want %d", len(data.Nodes), g.NodeCount())
	}
	if len(data.Edges) != g.EdgeCount() {
		t.Errorf("len(Edges) = %d, want %d", len(data.Edges), g.EdgeCount())
	}
	if data.Omitted != 0 {
		t.Errorf("Omitted = %d, want 0", data.Omitted)
	}

	for _, n := range data.Nodes {
		if n.ID == "pub_0" {
			if n.Title != "Bone loss in mice" || n.Date != "2020-01-02" {
				t.Errorf("publication node = %+v", n)
			}
		}
	}
}

func TestFromGraph_MaxNodes(t *testing.T) {
	g := testGraph()
	data := FromGraph(g, 3)

	if len(data.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(data.Nodes))
	}
	if data.Omitted != g.NodeCount()-3 {
		t.Errorf("Omitted = %d, want %d", data.Omitted, g.NodeCount()-3)
	}
	for i := 1; i < len(data.Nodes); i++ {
		if data.Nodes[i-1].Degree < data.Nodes[i].Degree {
			t.Errorf("nodes not sorted by degree: %d < %d", data.Nodes[i-1].Degree, data.Nodes[i].Degree)
		}
	}

	kept := make(map[string]bool)
	for _, n := range data.Nodes {
		kept[n.ID] = true
	}
	for _, e := range data.Edges {
		if !kept[e.Source] || !kept[e.Target] {
			t.Errorf("edge %s-%s references a dropped node", e.Source, e.Target)
		}
	}
}

func TestToCytoscapeJSON(t *testing.T) {
	data := &GraphData{
		Nodes: []Node{{ID: "author_a", Type: "author"}, {ID: "author_b", Type: "author"}},
		Edges: []Edge{
			{Source: "author_a", Target: "author_b", RelationshipType: "co_authors"},
			{Source: "author_b", Target: "author_a", RelationshipType: "co_authors"},
		},
	}
	out, err := data.ToCytoscapeJSON()
	if err != nil {
		t.Fatalf("ToCytoscapeJSON() error = %v", err)
	}

	var elements []struct {
		Group string `json:"group"`
		Data  struct {
			ID    string `json:"id"`
			Count int    `json:"count"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &elements); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	var nodes, edges int
	for _, e := range elements {
		switch e.Group {
		case "nodes":
			nodes++
		case "edges":
			edges++
			if e.Data.Count != 2 {
				t.Errorf("merged edge count = %d, want 2", e.Data.Count)
			}
		}
	}
	if nodes != 2 || edges != 1 {
		t.Errorf("got %d nodes and %d edges, want 2 and 1", nodes, edges)
	}
}

func TestToCytoscapeJSON_UniqueEdgeIDs(t *testing.T) {
	out, err := FromGraph(testGraph(), 0).ToCytoscapeJSON()
	if err != nil {
		t.Fatalf("ToCytoscapeJSON() error = %v", err)
	}
	var elements []struct {
		Group string `json:"group"`
		Data  struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &elements); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	seen := make(map[string]bool)
	for _, e := range elements {
		if seen[e.Data.ID] {
			t.Errorf("duplicate element ID %s", e.Data.ID)
		}
		seen[e.Data.ID] = true
	}
}

func TestGenerateHTML(t *testing.T) {
	html, err := GenerateHTML(FromGraph(testGraph(), 0), DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	for _, want := range []string{"cytoscape", "author_jane_doe", `"cose"`, "Space Biology Knowledge Graph"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestGenerateHTML_Layouts(t *testing.T) {
	data := FromGraph(testGraph(), 0)
	tests := []struct {
		layout  string
		want    string
		wantErr bool
	}{
		{"force", "cose", false},
		{"circle", "circle", false},
		{"grid", "grid", false},
		{"spiral", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			html, err := GenerateHTML(data, HTMLOptions{Layout: tt.layout})
			if (err != nil) != tt.wantErr {
				t.Fatalf("GenerateHTML() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !strings.Contains(html, `const layout = "`+tt.want+`"`) {
				t.Errorf("layout %q not rendered", tt.want)
			}
		})
	}
}

func TestGenerateHTML_Empty(t *testing.T) {
	html, err := GenerateHTML(FromGraph(graph.Build(nil), 0), DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	if !strings.Contains(html, "No graph data") {
		t.Error("empty graph should render the empty state")
	}

	if _, err := GenerateHTML(nil, DefaultOptions()); err == nil {
		t.Error("GenerateHTML(nil) should fail")
	}
}
