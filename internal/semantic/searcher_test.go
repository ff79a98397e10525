package semantic

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/publication"
)

// stubProvider returns a fixed vector, or blocks until the context ends when slow is set.
type stubProvider struct {
	vector []float32
	err    error
	slow   bool
	calls  atomic.Int32
}

func (p *stubProvider) Embed(ctx context.Context, text string) (embedding.Embedding, error) {
	p.calls.Add(1)
	if p.slow {
		<-ctx.Done()
		return embedding.Embedding{}, ctx.Err()
	}
	if p.err != nil {
		return embedding.Embedding{}, p.err
	}
	return embedding.Embedding{Vector: p.vector}, nil
}

func (p *stubProvider) ModelName() string { return "stub" }
func (p *stubProvider) Dimensions() int   { return len(p.vector) }

type pubMap map[int]publication.Publication

func (m pubMap) Publication(id int) (publication.Publication, bool) {
	p, ok := m[id]
	return p, ok
}

func testPublications() pubMap {
	pubs := pubMap{}
	for id := 1; id <= 5; id++ {
		pubs[id] = publication.Publication{ID: id, Title: "Publication"}
	}
	return pubs
}

func TestSearcher_Search(t *testing.T) {
	provider := &stubProvider{vector: []float32{1, 0}}
	s, err := NewSearcher(provider, fiveVectorIndex(t), testPublications())
	if err != nil {
		t.Fatalf("NewSearcher() error = %v", err)
	}

	hits, err := s.Search(context.Background(), "microgravity bone loss", 10, 0.8)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Search() returned %d hits, want 2", len(hits))
	}
	if hits[0].Publication.ID != 1 || hits[0].Score < hits[1].Score {
		t.Errorf("unexpected order: %+v", hits)
	}
}

func TestSearcher_ValidationBeforeProvider(t *testing.T) {
	provider := &stubProvider{vector: []float32{1, 0}}
	s, err := NewSearcher(provider, fiveVectorIndex(t), testPublications())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		query     string
		limit     int
		threshold float32
	}{
		{"empty query", "", 10, 0.5},
		{"blank query", "   ", 10, 0.5},
		{"zero limit", "q", 0, 0.5},
		{"bad threshold", "q", 10, 1.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Search(context.Background(), tt.query, tt.limit, tt.threshold)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Search() error = %v, want ErrValidation", err)
			}
		})
	}
	if n := provider.calls.Load(); n != 0 {
		t.Errorf("provider called %d times for invalid requests", n)
	}
}

func TestSearcher_ProviderTimeout(t *testing.T) {
	provider := &stubProvider{vector: []float32{1, 0}, slow: true}
	s, err := NewSearcher(provider, fiveVectorIndex(t), testPublications(), WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	hits, err := s.Search(context.Background(), "radiation", 10, 0.5)
	if hits != nil {
		t.Errorf("Search() hits = %v, want nil", hits)
	}
	var pe *embedding.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Search() error = %v, want *ProviderError", err)
	}
	if !pe.Timeout() {
		t.Error("ProviderError should report a timeout")
	}
}

func TestSearcher_ProviderFailure(t *testing.T) {
	provider := &stubProvider{vector: []float32{1, 0}, err: errors.New("quota exhausted")}
	s, err := NewSearcher(provider, fiveVectorIndex(t), testPublications())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Search(context.Background(), "q", 10, 0.5); !embedding.IsProviderError(err) {
		t.Errorf("Search() error = %v, want *ProviderError", err)
	}
}

func TestNewSearcher_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider embedding.Provider
		index    *Index
		wantErr  error
	}{
		{"nil provider", nil, fiveVectorIndex(t), ErrNoProvider},
		{"empty index", &stubProvider{vector: []float32{1, 0}}, NewIndex("m", 2), ErrEmptyIndex},
		{"nil index", &stubProvider{vector: []float32{1, 0}}, nil, ErrEmptyIndex},
		{"dimension mismatch", &stubProvider{vector: []float32{1, 0, 0}}, fiveVectorIndex(t), ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearcher(tt.provider, tt.index, testPublications())
			if !IsConfigurationError(err) {
				t.Errorf("NewSearcher() error = %v, want *ConfigurationError", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewSearcher() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearcher_SkipsUnknownPublications(t *testing.T) {
	pubs := testPublications()
	delete(pubs, 1)
	s, err := NewSearcher(&stubProvider{vector: []float32{1, 0}}, fiveVectorIndex(t), pubs)
	if err != nil {
		t.Fatal(err)
	}

	hits, err := s.Search(context.Background(), "q", 10, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Publication.ID != 2 {
		t.Errorf("hits = %+v, want only publication 2", hits)
	}
}
