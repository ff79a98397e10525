package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/matsen/spacebio/internal/publication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// starCorpus yields a star centred on pub_0 with three keyword leaves, a
// two-node component pub_1 - keyword_k9 and an isolated pub_2.
func starCorpus() []publication.Publication {
	return []publication.Publication{
		{ID: 0, Title: "Star", Keywords: []string{"k1", "k2", "k3"}},
		{ID: 1, Title: "Pair", Keywords: []string{"k9"}},
		{ID: 2, Title: "Alone"},
	}
}

func scoreMap(scores []Score) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for _, s := range scores {
		out[s.ID] = s.Score
	}
	return out
}

func TestCentrality_DegreeHandshake(t *testing.T) {
	for name, pubs := range map[string][]publication.Publication{
		"jane doe": janeDoeCorpus(),
		"rich":     richCorpus(),
		"star":     starCorpus(),
	} {
		t.Run(name, func(t *testing.T) {
			g := Build(pubs)
			scores, err := Centrality(g, Degree, g.NodeCount())
			require.NoError(t, err)

			var sum float64
			for _, s := range scores {
				sum += s.Score
			}
			assert.Equal(t, float64(2*g.EdgeCount()), sum)
		})
	}
}

func TestCentrality_Betweenness(t *testing.T) {
	g := Build(starCorpus())
	scores, err := Centrality(g, Betweenness, 100)
	require.NoError(t, err)
	got := scoreMap(scores)

	assert.InDelta(t, 1.0, got["pub_0"], 1e-9)
	for _, leaf := range []string{"keyword_k1", "keyword_k2", "keyword_k3"} {
		assert.InDelta(t, 0.0, got[leaf], 1e-9, leaf)
	}
	// Components of two or fewer nodes score zero.
	assert.Zero(t, got["pub_1"])
	assert.Zero(t, got["pub_2"])
	assert.Equal(t, "pub_0", scores[0].ID)
}

func TestCentrality_BetweennessPath(t *testing.T) {
	// pub_0 - author_a - pub_1 - author_b - pub_2
	g := Build([]publication.Publication{
		{ID: 0, Title: "x", Authors: []string{"A"}},
		{ID: 1, Title: "y", Authors: []string{"A", "B"}},
		{ID: 2, Title: "z", Authors: []string{"B"}},
	})
	got := BetweennessCentrality(g)

	// c = 5, so pairs are normalized by 2/(4*3) = 1/6.
	// author_a lies on paths pub_0 to {pub_1, author_b, pub_2}: 3 pairs.
	assert.InDelta(t, 0.5, got["author_a"], 1e-9)
	// pub_1 is bypassed by the co_authors edge a-b, so it carries no pair.
	assert.InDelta(t, 0.0, got["pub_1"], 1e-9)
	assert.InDelta(t, 0.0, got["pub_0"], 1e-9)
}

func TestCentrality_Closeness(t *testing.T) {
	g := Build(starCorpus())
	got := ClosenessCentrality(g)

	assert.InDelta(t, 1.0, got["pub_0"], 1e-9)
	assert.InDelta(t, 3.0/5.0, got["keyword_k1"], 1e-9)
	assert.InDelta(t, 1.0, got["pub_1"], 1e-9)
	assert.InDelta(t, 1.0, got["keyword_k9"], 1e-9)
	assert.Zero(t, got["pub_2"])
}

func TestCentrality_TiesByID(t *testing.T) {
	g := Build(starCorpus())
	scores, err := Centrality(g, Closeness, 3)
	require.NoError(t, err)
	require.Len(t, scores, 3)

	ids := []string{scores[0].ID, scores[1].ID, scores[2].ID}
	assert.Equal(t, []string{"keyword_k9", "pub_0", "pub_1"}, ids)
	assert.Equal(t, "Pair", scores[2].Label)
	assert.Equal(t, NodePublication, scores[2].Type)
}

func TestCentrality_Sorted(t *testing.T) {
	g := Build(richCorpus())
	for _, kind := range Kinds {
		scores, err := Centrality(g, kind, 1000)
		require.NoError(t, err)
		assert.Len(t, scores, g.NodeCount())
		for i := 1; i < len(scores); i++ {
			assert.GreaterOrEqual(t, scores[i-1].Score, scores[i].Score, "%s at %d", kind, i)
			assert.False(t, math.IsNaN(scores[i].Score))
		}
	}
}

func TestCentrality_Errors(t *testing.T) {
	empty := Build(nil)

	_, err := Centrality(empty, Degree, 10)
	assert.ErrorIs(t, err, ErrEmptyGraph)
	var ege *EmptyGraphError
	assert.True(t, errors.As(err, &ege))

	g := Build(janeDoeCorpus())
	_, err = Centrality(g, Kind("pagerank"), 10)
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Centrality(g, Degree, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("closeness")
	require.NoError(t, err)
	assert.Equal(t, Closeness, k)

	_, err = ParseKind("Degree")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
