// Package graph builds the publication knowledge graph and computes
// centrality, statistics and neighbourhood queries over it.
//
// A Graph is an undirected multigraph: every publication links to its
// authors, journal, theme and keywords, and every pair of authors sharing a
// publication gets a co_authors edge. Parallel edges are kept so that degree
// reflects multiplicity; path based metrics use the underlying simple graph.
package graph

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/matsen/spacebio/internal/publication"
)

// NodeType identifies what a node represents.
type NodeType string

// Node types.
const (
	NodePublication NodeType = "publication"
	NodeAuthor      NodeType = "author"
	NodeJournal     NodeType = "journal"
	NodeTheme       NodeType = "theme"
	NodeKeyword     NodeType = "keyword"
)

// NodeTypes lists every node type in display order.
var NodeTypes = []NodeType{NodePublication, NodeAuthor, NodeJournal, NodeTheme, NodeKeyword}

// ParseNodeType converts a string to a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	for _, t := range NodeTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, s)
}

// Relation is the kind of an edge.
type Relation string

// Edge relations.
const (
	RelAuthoredBy  Relation = "authored_by"
	RelPublishedIn Relation = "published_in"
	RelHasTheme    Relation = "has_theme"
	RelHasKeyword  Relation = "has_keyword"
	RelCoAuthors   Relation = "co_authors"
)

// Relations lists every edge relation.
var Relations = []Relation{RelAuthoredBy, RelPublishedIn, RelHasTheme, RelHasKeyword, RelCoAuthors}

// maxLabelLength truncates publication titles used as labels.
const maxLabelLength = 100

// Node is an entity in the graph.
type Node struct {
	ID    string   `json:"id"`
	Type  NodeType `json:"type"`
	Label string   `json:"label"`

	// Weight counts the publications referencing this entity; publications weigh 1.
	Weight int `json:"weight"`

	Properties map[string]string `json:"properties,omitempty"`
}

// Edge is an unordered relation between two nodes.
// Publication edges carry the publication as Source; co_authors edges are
// stored with Source < Target.
type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Relation Relation `json:"relationship_type"`
}

// Other returns the endpoint of e that is not id.
func (e Edge) Other(id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// Graph is an immutable knowledge graph. Build constructs it; nothing mutates it afterwards.
type Graph struct {
	nodes map[string]*Node
	ids   []string // sorted
	edges []Edge

	incident  map[string][]int    // edge indices touching a node
	neighbors map[string][]string // simple graph, sorted
}

// Key normalizes an entity name: lowercased, commas removed and whitespace
// runs replaced by underscores.
func Key(name string) string {
	name = strings.ToLower(strings.ReplaceAll(name, ",", ""))
	return strings.Join(strings.Fields(name), "_")
}

// NodeID returns the node ID of a named entity, or "" when the name is blank.
func NodeID(t NodeType, name string) string {
	key := Key(name)
	if key == "" {
		return ""
	}
	return string(t) + "_" + key
}

// PublicationNodeID returns the node ID of a publication.
func PublicationNodeID(id int) string {
	return fmt.Sprintf("pub_%d", id)
}

// builder accumulates nodes and edges while folding publications.
type builder struct {
	nodes map[string]*Node
	edges []Edge
}

// Build folds publications into a graph. The result does not depend on the
// order of pubs: records are processed by ascending ID, so entity labels come
// from the lowest-numbered publication mentioning them.
func Build(pubs []publication.Publication) *Graph {
	sorted := make([]*publication.Publication, len(pubs))
	for i := range pubs {
		sorted[i] = &pubs[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	b := &builder{nodes: make(map[string]*Node)}
	for _, p := range sorted {
		b.addPublication(p)
	}
	return b.finish()
}

func (b *builder) addPublication(p *publication.Publication) {
	pubID := PublicationNodeID(p.ID)
	if _, dup := b.nodes[pubID]; dup {
		return
	}
	b.nodes[pubID] = &Node{
		ID:     pubID,
		Type:   NodePublication,
		Label:  truncateLabel(p.Title),
		Weight: 1,
		Properties: compactProperties(map[string]string{
			"title":            p.Title,
			"summary":          p.Summary,
			"impact":           p.Impact,
			"doi":              p.DOI,
			"publication_date": p.PublicationDate,
			"url":              p.URL,
		}),
	}

	authors := b.addEntities(pubID, NodeAuthor, RelAuthoredBy, p.Authors)
	if p.Journal != "" {
		b.addEntities(pubID, NodeJournal, RelPublishedIn, []string{p.Journal})
	}
	if p.Theme != "" {
		b.addEntities(pubID, NodeTheme, RelHasTheme, []string{p.Theme})
	}
	b.addEntities(pubID, NodeKeyword, RelHasKeyword, p.Keywords)

	for i := 0; i < len(authors); i++ {
		for j := i + 1; j < len(authors); j++ {
			a, c := authors[i], authors[j]
			if c < a {
				a, c = c, a
			}
			b.edges = append(b.edges, Edge{Source: a, Target: c, Relation: RelCoAuthors})
		}
	}
}

// addEntities links pubID to each named entity, counting a name once per
// publication, and returns the distinct entity IDs in input order.
func (b *builder) addEntities(pubID string, t NodeType, rel Relation, names []string) []string {
	seen := make(map[string]bool, len(names))
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id := NodeID(t, name)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)

		n, ok := b.nodes[id]
		if !ok {
			label := strings.TrimSpace(name)
			n = &Node{ID: id, Type: t, Label: label, Properties: map[string]string{"name": label}}
			b.nodes[id] = n
		}
		n.Weight++
		b.edges = append(b.edges, Edge{Source: pubID, Target: id, Relation: rel})
	}
	return ids
}

func (b *builder) finish() *Graph {
	g := &Graph{
		nodes:     b.nodes,
		ids:       make([]string, 0, len(b.nodes)),
		edges:     b.edges,
		incident:  make(map[string][]int, len(b.nodes)),
		neighbors: make(map[string][]string, len(b.nodes)),
	}
	for id := range g.nodes {
		g.ids = append(g.ids, id)
	}
	sort.Strings(g.ids)

	sort.SliceStable(g.edges, func(i, j int) bool {
		a, c := g.edges[i], g.edges[j]
		if a.Source != c.Source {
			return a.Source < c.Source
		}
		if a.Target != c.Target {
			return a.Target < c.Target
		}
		return a.Relation < c.Relation
	})

	adjacent := make(map[string]map[string]bool, len(g.nodes))
	for i, e := range g.edges {
		g.incident[e.Source] = append(g.incident[e.Source], i)
		g.incident[e.Target] = append(g.incident[e.Target], i)
		for _, pair := range [][2]string{{e.Source, e.Target}, {e.Target, e.Source}} {
			if adjacent[pair[0]] == nil {
				adjacent[pair[0]] = make(map[string]bool)
			}
			adjacent[pair[0]][pair[1]] = true
		}
	}
	for id, set := range adjacent {
		list := make([]string, 0, len(set))
		for n := range set {
			list = append(list, n)
		}
		sort.Strings(list)
		g.neighbors[id] = list
	}
	return g
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// EdgeCount returns the number of edges, counting parallel edges.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return len(g.edges)
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Lookup finds an entity node by type and display name.
func (g *Graph) Lookup(t NodeType, name string) (Node, error) {
	n, ok := g.Node(NodeID(t, name))
	if !ok {
		return Node{}, fmt.Errorf("%w: %s %q", ErrNodeNotFound, t, name)
	}
	return n, nil
}

// Nodes returns every node sorted by ID.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns every edge in a stable order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Degree returns the number of edges incident to id, counting parallel edges.
func (g *Graph) Degree(id string) int {
	return len(g.incident[id])
}

// Neighbors returns the distinct nodes adjacent to id, sorted.
func (g *Graph) Neighbors(id string) []string {
	return g.neighbors[id]
}

// IncidentEdges returns the edges touching id that have the given relation.
func (g *Graph) IncidentEdges(id string, rel Relation) []Edge {
	var out []Edge
	for _, i := range g.incident[id] {
		if g.edges[i].Relation == rel {
			out = append(out, g.edges[i])
		}
	}
	return out
}

func truncateLabel(title string) string {
	if utf8.RuneCountInString(title) <= maxLabelLength {
		return title
	}
	runes := []rune(title)
	return string(runes[:maxLabelLength]) + "..."
}

func compactProperties(props map[string]string) map[string]string {
	for k, v := range props {
		if v == "" {
			delete(props, k)
		}
	}
	return props
}
