package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Query defaults.
const (
	DefaultNetworkDepth    = 2
	DefaultMinCoOccurrence = 2
	DefaultSearchLimit     = 20
)

// NodeRef is a lightweight view of a node.
type NodeRef struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Type  NodeType `json:"type"`
}

func refOf(n *Node) NodeRef {
	return NodeRef{ID: n.ID, Label: n.Label, Type: n.Type}
}

// AuthorInfo lists an author's publications and co-authors.
type AuthorInfo struct {
	Author           NodeRef   `json:"author"`
	Publications     []NodeRef `json:"publications"`
	CoAuthors        []string  `json:"co_authors"`
	PublicationCount int       `json:"publication_count"`
	CoAuthorCount    int       `json:"collaboration_count"`
}

// Author returns the publications and co-authors of the named author.
func (g *Graph) Author(name string) (*AuthorInfo, error) {
	n, err := g.Lookup(NodeAuthor, name)
	if err != nil {
		return nil, err
	}

	info := &AuthorInfo{Author: refOf(&n)}
	for _, e := range g.IncidentEdges(n.ID, RelAuthoredBy) {
		info.Publications = append(info.Publications, refOf(g.nodes[e.Source]))
	}
	sortRefs(info.Publications)

	seen := make(map[string]bool)
	for _, e := range g.IncidentEdges(n.ID, RelCoAuthors) {
		other := e.Other(n.ID)
		if seen[other] {
			continue
		}
		seen[other] = true
		info.CoAuthors = append(info.CoAuthors, g.nodes[other].Label)
	}
	sort.Strings(info.CoAuthors)

	info.PublicationCount = len(info.Publications)
	info.CoAuthorCount = len(info.CoAuthors)
	return info, nil
}

// Network is a neighbourhood of the co-authorship graph.
type Network struct {
	Author NodeRef   `json:"author"`
	Depth  int       `json:"depth"`
	Nodes  []NodeRef `json:"nodes"`
	Edges  []Edge    `json:"edges"`
}

// CollaborationNetwork walks co_authors edges breadth first from the named
// author up to depth hops and returns the authors reached and the distinct
// co-author pairs traversed.
func (g *Graph) CollaborationNetwork(name string, depth int) (*Network, error) {
	if depth < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}
	start, err := g.Lookup(NodeAuthor, name)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{start.ID: true}
	traversed := make(map[Edge]bool)
	frontier := []string{start.ID}
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []string
		for _, id := range frontier {
			for _, e := range g.IncidentEdges(id, RelCoAuthors) {
				traversed[e] = true
				other := e.Other(id)
				if !visited[other] {
					visited[other] = true
					next = append(next, other)
				}
			}
		}
		frontier = next
	}

	net := &Network{Author: refOf(&start), Depth: depth}
	for id := range visited {
		net.Nodes = append(net.Nodes, refOf(g.nodes[id]))
	}
	sortRefs(net.Nodes)
	for e := range traversed {
		net.Edges = append(net.Edges, e)
	}
	sort.Slice(net.Edges, func(i, j int) bool {
		if net.Edges[i].Source != net.Edges[j].Source {
			return net.Edges[i].Source < net.Edges[j].Source
		}
		return net.Edges[i].Target < net.Edges[j].Target
	})
	return net, nil
}

// ThemeInfo lists a theme's publications and the themes related to it.
type ThemeInfo struct {
	Theme            NodeRef   `json:"theme"`
	Publications     []NodeRef `json:"publications"`
	RelatedThemes    []Count   `json:"related_themes"`
	PublicationCount int       `json:"publication_count"`
}

// ThemeConnections returns the publications filed under the named theme.
// A theme is related when one of its publications shares a keyword with a
// publication of this theme; the count is the number of such publications.
func (g *Graph) ThemeConnections(name string) (*ThemeInfo, error) {
	n, err := g.Lookup(NodeTheme, name)
	if err != nil {
		return nil, err
	}

	info := &ThemeInfo{Theme: refOf(&n)}
	keywords := make(map[string]bool)
	for _, e := range g.IncidentEdges(n.ID, RelHasTheme) {
		info.Publications = append(info.Publications, refOf(g.nodes[e.Source]))
		for _, k := range g.IncidentEdges(e.Source, RelHasKeyword) {
			keywords[k.Target] = true
		}
	}
	sortRefs(info.Publications)
	info.PublicationCount = len(info.Publications)

	related := make(map[string]map[string]bool)
	for kw := range keywords {
		for _, k := range g.IncidentEdges(kw, RelHasKeyword) {
			for _, t := range g.IncidentEdges(k.Source, RelHasTheme) {
				if t.Target == n.ID {
					continue
				}
				if related[t.Target] == nil {
					related[t.Target] = make(map[string]bool)
				}
				related[t.Target][k.Source] = true
			}
		}
	}
	tally := make(map[string]int, len(related))
	for id, pubs := range related {
		tally[id] = len(pubs)
	}
	info.RelatedThemes = g.rank(tally, 0)
	return info, nil
}

// KeywordInfo lists the keywords appearing alongside a keyword.
type KeywordInfo struct {
	Keyword           NodeRef `json:"keyword"`
	CoOccurring       []Count `json:"co_occurring_keywords"`
	TotalPublications int     `json:"total_publications"`
	MinCoOccurrence   int     `json:"min_co_occurrence"`
}

// KeywordCoOccurrence counts, for every other keyword, the publications it
// shares with the named keyword and keeps those with at least min.
func (g *Graph) KeywordCoOccurrence(keyword string, min int) (*KeywordInfo, error) {
	if min < 1 {
		min = 1
	}
	n, err := g.Lookup(NodeKeyword, keyword)
	if err != nil {
		return nil, err
	}

	pubs := g.IncidentEdges(n.ID, RelHasKeyword)
	tally := make(map[string]int)
	for _, e := range pubs {
		for _, k := range g.IncidentEdges(e.Source, RelHasKeyword) {
			if k.Target != n.ID {
				tally[k.Target]++
			}
		}
	}
	for id, c := range tally {
		if c < min {
			delete(tally, id)
		}
	}

	return &KeywordInfo{
		Keyword:           refOf(&n),
		CoOccurring:       g.rank(tally, 0),
		TotalPublications: len(pubs),
		MinCoOccurrence:   min,
	}, nil
}

// SearchNodes finds nodes whose label contains query, ignoring case. An empty
// nodeType matches every type. Exact matches rank first, then longer labels,
// then IDs. It returns at most limit nodes and the total number of matches.
func (g *Graph) SearchNodes(query string, nodeType NodeType, limit int) ([]NodeRef, int, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, 0, ErrEmptyQuery
	}
	if limit <= 0 {
		return nil, 0, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	var matches []NodeRef
	for _, id := range g.ids {
		n := g.nodes[id]
		if nodeType != "" && n.Type != nodeType {
			continue
		}
		if strings.Contains(strings.ToLower(n.Label), q) {
			matches = append(matches, refOf(n))
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		ei := strings.ToLower(matches[i].Label) == q
		ej := strings.ToLower(matches[j].Label) == q
		if ei != ej {
			return ei
		}
		if len(matches[i].Label) != len(matches[j].Label) {
			return len(matches[i].Label) > len(matches[j].Label)
		}
		return matches[i].ID < matches[j].ID
	})

	total := len(matches)
	if total > limit {
		matches = matches[:limit]
	}
	return matches, total, nil
}

// Path is a shortest route between two nodes. Length is -1 when none exists.
type Path struct {
	Source string    `json:"source"`
	Target string    `json:"target"`
	Nodes  []NodeRef `json:"path"`
	Length int       `json:"path_length"`
}

// ShortestPath finds a shortest path between two node IDs, ignoring edge
// relations and multiplicity. Among equal-length paths the one visiting
// lexicographically smaller neighbours first is returned.
func (g *Graph) ShortestPath(source, target string) (*Path, error) {
	for _, id := range []string{source, target} {
		if _, ok := g.nodes[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
	}

	path := &Path{Source: source, Target: target, Nodes: []NodeRef{}, Length: -1}
	parent := map[string]string{source: ""}
	queue := []string{source}
	for head := 0; head < len(queue); head++ {
		v := queue[head]
		if v == target {
			break
		}
		for _, w := range g.neighbors[v] {
			if _, seen := parent[w]; !seen {
				parent[w] = v
				queue = append(queue, w)
			}
		}
	}
	if _, ok := parent[target]; !ok {
		return path, nil
	}

	var ids []string
	for v := target; v != ""; v = parent[v] {
		ids = append(ids, v)
		if v == source {
			break
		}
	}
	for i := len(ids) - 1; i >= 0; i-- {
		path.Nodes = append(path.Nodes, refOf(g.nodes[ids[i]]))
	}
	path.Length = len(ids) - 1
	return path, nil
}

func sortRefs(refs []NodeRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
}
