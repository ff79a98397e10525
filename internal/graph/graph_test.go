package graph

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/spacebio/internal/publication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func janeDoeCorpus() []publication.Publication {
	return []publication.Publication{
		{ID: 0, Title: "Bone density in microgravity", Authors: []string{"Jane Doe"}},
		{ID: 1, Title: "Muscle atrophy on the ISS", Authors: []string{"Jane Doe"}},
		{ID: 2, Title: "Plant gravitropism", Authors: []string{"John Smith"}},
	}
}

func richCorpus() []publication.Publication {
	return []publication.Publication{
		{
			ID: 0, Title: "Spaceflight alters bone", Authors: []string{"Jane Doe", "Ann Lee", "Bo Chen"},
			Journal: "NPJ Microgravity", Theme: "Bone Health", Keywords: []string{"bone", "microgravity", "mice"},
		},
		{
			ID: 1, Title: "Mouse muscle in orbit", Authors: []string{"Jane Doe", "Ann Lee"},
			Journal: "NPJ Microgravity", Theme: "Muscle", Keywords: []string{"muscle", "microgravity", "mice"},
		},
		{
			ID: 2, Title: "Radiation and DNA", Authors: []string{"Carl Ito"},
			Journal: "Radiation Research", Theme: "Radiation", Keywords: []string{"radiation", "dna"},
		},
		{
			ID: 3, Title: "Arabidopsis roots", Authors: []string{"Bo Chen", "Dee Ray"},
			Journal: "Plant Cell", Theme: "Plants", Keywords: []string{"microgravity", "roots"},
		},
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Jane Doe", "jane_doe"},
		{"Doe, Jane", "doe_jane"},
		{"  Space   Biology ", "space_biology"},
		{"NPJ\tMicrogravity", "npj_microgravity"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Key(tt.in); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	assert.Equal(t, "author_jane_doe", NodeID(NodeAuthor, "Jane Doe"))
	assert.Equal(t, "", NodeID(NodeKeyword, "   "))
	assert.Equal(t, "pub_12", PublicationNodeID(12))
}

func TestBuild_JaneDoe(t *testing.T) {
	g := Build(janeDoeCorpus())

	jane, ok := g.Node("author_jane_doe")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", jane.Label)
	assert.Equal(t, 2, jane.Weight)
	assert.Equal(t, 2, g.Degree(jane.ID))

	assert.Equal(t, 3, ComputeStatistics(g).NodeTypes[NodePublication])
	assert.Equal(t, []string{"pub_2"}, g.Neighbors("author_john_smith"))
	assert.Equal(t, []string{"author_john_smith"}, g.Neighbors("pub_2"))

	path, err := g.ShortestPath("author_john_smith", "author_jane_doe")
	require.NoError(t, err)
	assert.Equal(t, -1, path.Length)
	assert.Empty(t, path.Nodes)
}

func TestBuild_Edges(t *testing.T) {
	g := Build(richCorpus())
	stats := ComputeStatistics(g)

	assert.Equal(t, 8, stats.EdgeTypes[RelAuthoredBy])
	assert.Equal(t, 4, stats.EdgeTypes[RelPublishedIn])
	assert.Equal(t, 4, stats.EdgeTypes[RelHasTheme])
	assert.Equal(t, 10, stats.EdgeTypes[RelHasKeyword])
	// 3 pairs from pub 0, 1 from pub 1, 1 from pub 3.
	assert.Equal(t, 5, stats.EdgeTypes[RelCoAuthors])

	// Jane Doe and Ann Lee share two publications: two parallel edges.
	coauthor := g.IncidentEdges("author_ann_lee", RelCoAuthors)
	parallel := 0
	for _, e := range coauthor {
		if e.Other("author_ann_lee") == "author_jane_doe" {
			parallel++
		}
	}
	assert.Equal(t, 2, parallel)

	for _, e := range g.Edges() {
		if e.Relation == RelCoAuthors {
			assert.Less(t, e.Source, e.Target)
		} else {
			assert.True(t, strings.HasPrefix(e.Source, "pub_"), e.Source)
		}
	}

	mg, ok := g.Node("keyword_microgravity")
	require.True(t, ok)
	assert.Equal(t, 3, mg.Weight)
	journal, _ := g.Node("journal_npj_microgravity")
	assert.Equal(t, 2, journal.Weight)
}

func TestBuild_DuplicateNamesCountOnce(t *testing.T) {
	g := Build([]publication.Publication{
		{ID: 0, Title: "T", Authors: []string{"Jane Doe", "jane  doe", "Bo Chen"}, Keywords: []string{"ISS", "iss"}},
	})

	jane, _ := g.Node("author_jane_doe")
	assert.Equal(t, 1, jane.Weight)
	assert.Equal(t, 2, g.Degree("author_jane_doe"), "one authored_by and one co_authors edge")
	kw, _ := g.Node("keyword_iss")
	assert.Equal(t, 1, kw.Weight)
	assert.Equal(t, "ISS", kw.Label)
}

func TestBuild_OrderIndependent(t *testing.T) {
	pubs := richCorpus()
	want := Build(pubs)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := make([]publication.Publication, len(pubs))
		copy(shuffled, pubs)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Build(shuffled)
		if !reflect.DeepEqual(got.Nodes(), want.Nodes()) {
			t.Fatalf("permutation %d: nodes differ", i)
		}
		if !reflect.DeepEqual(got.Edges(), want.Edges()) {
			t.Fatalf("permutation %d: edges differ", i)
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	pubs := richCorpus()
	assert.Equal(t, Build(pubs).ToExport(), Build(pubs).ToExport())
}

func TestBuild_LongTitleLabel(t *testing.T) {
	title := strings.Repeat("a", 150)
	g := Build([]publication.Publication{{ID: 5, Title: title}})

	n, ok := g.Node("pub_5")
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("a", 100)+"...", n.Label)
	assert.Equal(t, title, n.Properties["title"])
}

func TestParseNodeType(t *testing.T) {
	nt, err := ParseNodeType("journal")
	require.NoError(t, err)
	assert.Equal(t, NodeJournal, nt)

	_, err = ParseNodeType("planet")
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestLookup_NotFound(t *testing.T) {
	g := Build(janeDoeCorpus())
	_, err := g.Lookup(NodeAuthor, "Nobody")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}
