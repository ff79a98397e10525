package graph

import (
	"fmt"
	"sort"
)

// Kind selects a centrality measure.
type Kind string

// Centrality kinds.
const (
	Degree      Kind = "degree"
	Betweenness Kind = "betweenness"
	Closeness   Kind = "closeness"
)

// Kinds lists the supported centrality measures.
var Kinds = []Kind{Degree, Betweenness, Closeness}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want degree, betweenness or closeness)", ErrUnknownKind, s)
}

// Score is a node's centrality value.
type Score struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Type  NodeType `json:"type"`
	Score float64  `json:"score"`
}

// Centrality ranks nodes by the given measure, highest first with ties broken
// by ascending ID, and returns at most limit scores.
//
// Betweenness and closeness are exact and cost O(V·(V+E)). Both are computed
// within each node's connected component: a node is only compared against
// nodes it can reach.
func Centrality(g *Graph, kind Kind, limit int) ([]Score, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if g.NodeCount() == 0 {
		return nil, &EmptyGraphError{Op: "centrality"}
	}

	var values map[string]float64
	switch kind {
	case Degree:
		values = DegreeCentrality(g)
	case Betweenness:
		values = BetweennessCentrality(g)
	case Closeness:
		values = ClosenessCentrality(g)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	scores := make([]Score, 0, len(values))
	for id, v := range values {
		n := g.nodes[id]
		scores = append(scores, Score{ID: id, Label: n.Label, Type: n.Type, Score: v})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})
	if len(scores) > limit {
		scores = scores[:limit]
	}
	return scores, nil
}

// DegreeCentrality returns the number of incident edges of every node,
// counting parallel edges. The values sum to twice the edge count.
func DegreeCentrality(g *Graph) map[string]float64 {
	out := make(map[string]float64, len(g.ids))
	for _, id := range g.ids {
		out[id] = float64(len(g.incident[id]))
	}
	return out
}

// BetweennessCentrality computes normalized betweenness with Brandes'
// algorithm on the simple graph. A node in a component of c nodes is
// normalized by 2/((c-1)(c-2)); components of two or fewer nodes score 0.
func BetweennessCentrality(g *Graph) map[string]float64 {
	adj := g.indexAdjacency()
	n := len(adj)
	comp, sizes := components(adj)

	bc := make([]float64, n)
	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	preds := make([][]int, n)
	stack := make([]int, 0, n)
	queue := make([]int, 0, n)

	for s := 0; s < n; s++ {
		stack = stack[:0]
		queue = queue[:0]
		for i := range dist {
			dist[i] = -1
			sigma[i] = 0
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		dist[s] = 0
		sigma[s] = 1
		queue = append(queue, s)

		for head := 0; head < len(queue); head++ {
			v := queue[head]
			stack = append(stack, v)
			for _, w := range adj[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				bc[w] += delta[w]
			}
		}
	}

	out := make(map[string]float64, n)
	for i, id := range g.ids {
		c := sizes[comp[i]]
		if c <= 2 {
			out[id] = 0
			continue
		}
		// Each unordered pair was counted from both ends, so the 2/((c-1)(c-2))
		// normalization reduces to 1/((c-1)(c-2)).
		out[id] = bc[i] / float64((c-1)*(c-2))
	}
	return out
}

// ClosenessCentrality returns (c-1)/Σd for every node, where c is the size
// of its component and Σd the sum of shortest path lengths to the other nodes
// of that component. Isolated nodes score 0.
func ClosenessCentrality(g *Graph) map[string]float64 {
	adj := g.indexAdjacency()
	n := len(adj)
	dist := make([]int, n)
	queue := make([]int, 0, n)

	out := make(map[string]float64, n)
	for s := 0; s < n; s++ {
		for i := range dist {
			dist[i] = -1
		}
		dist[s] = 0
		queue = append(queue[:0], s)
		total := 0
		for head := 0; head < len(queue); head++ {
			v := queue[head]
			total += dist[v]
			for _, w := range adj[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
			}
		}

		reached := len(queue)
		if reached <= 1 || total == 0 {
			out[g.ids[s]] = 0
			continue
		}
		out[g.ids[s]] = float64(reached-1) / float64(total)
	}
	return out
}

// indexAdjacency converts the simple graph to index form following g.ids.
func (g *Graph) indexAdjacency() [][]int {
	pos := make(map[string]int, len(g.ids))
	for i, id := range g.ids {
		pos[id] = i
	}
	adj := make([][]int, len(g.ids))
	for i, id := range g.ids {
		for _, nb := range g.neighbors[id] {
			adj[i] = append(adj[i], pos[nb])
		}
	}
	return adj
}

// components labels each vertex with its component and returns component sizes.
func components(adj [][]int) ([]int, []int) {
	comp := make([]int, len(adj))
	for i := range comp {
		comp[i] = -1
	}
	var sizes []int
	queue := make([]int, 0, len(adj))
	for s := range adj {
		if comp[s] >= 0 {
			continue
		}
		label := len(sizes)
		comp[s] = label
		queue = append(queue[:0], s)
		for head := 0; head < len(queue); head++ {
			for _, w := range adj[queue[head]] {
				if comp[w] < 0 {
					comp[w] = label
					queue = append(queue, w)
				}
			}
		}
		sizes = append(sizes, len(queue))
	}
	return comp, sizes
}
