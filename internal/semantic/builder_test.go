package semantic

import (
	"context"
	"errors"
	"testing"

	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/publication"
)

// scriptedProvider fails for texts listed in failOn.
type scriptedProvider struct {
	failOn map[string]bool
}

func (p *scriptedProvider) Embed(ctx context.Context, text string) (embedding.Embedding, error) {
	if p.failOn[text] {
		return embedding.Embedding{}, &embedding.ProviderError{Provider: "stub", Op: "embed", Err: errors.New("boom")}
	}
	return embedding.Embedding{Vector: []float32{float32(len(text)), 1}}, nil
}

func (p *scriptedProvider) ModelName() string { return "scripted" }
func (p *scriptedProvider) Dimensions() int   { return 2 }

func buildInput() []publication.Publication {
	return []publication.Publication{
		{ID: 0, Title: "Bone loss in mice", Summary: "Mice lost bone."},
		{ID: 1, Title: "Title only"},
		{ID: 2, Title: "Plant roots", Abstract: "Roots grow oddly."},
	}
}

func TestBuilder_Build(t *testing.T) {
	var calls []int
	b := NewBuilder(&scriptedProvider{},
		WithRate(0),
		WithProgress(ProgressFunc(func(current, total int) { calls = append(calls, current) })),
	)

	idx, stats, err := b.Build(context.Background(), buildInput())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if stats.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", stats.Indexed)
	}
	if len(stats.Skipped) != 1 || stats.Skipped[0] != 1 {
		t.Errorf("Skipped = %v, want [1]", stats.Skipped)
	}
	if !idx.Has(0) || !idx.Has(2) || idx.Has(1) {
		t.Errorf("IDs() = %v", idx.IDs())
	}
	if idx.ModelName != "scripted" || idx.Dimensions != 2 {
		t.Errorf("index metadata = %s/%d", idx.ModelName, idx.Dimensions)
	}
	if len(calls) != 3 || calls[2] != 3 {
		t.Errorf("progress calls = %v", calls)
	}
}

func TestBuilder_StopsOnError(t *testing.T) {
	pubs := buildInput()
	failing := pubs[2].EmbeddingContent()
	b := NewBuilder(&scriptedProvider{failOn: map[string]bool{failing: true}}, WithRate(0))

	_, _, err := b.Build(context.Background(), pubs)
	if !embedding.IsProviderError(err) {
		t.Errorf("Build() error = %v, want *ProviderError", err)
	}
}

func TestBuilder_ContinueOnError(t *testing.T) {
	pubs := buildInput()
	failing := pubs[2].EmbeddingContent()
	b := NewBuilder(&scriptedProvider{failOn: map[string]bool{failing: true}}, WithRate(0), WithContinueOnError(true))

	idx, stats, err := b.Build(context.Background(), pubs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(stats.Failed) != 1 || stats.Failed[0] != 2 {
		t.Errorf("Failed = %v, want [2]", stats.Failed)
	}
	if idx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", idx.Len())
	}
}

func TestBuilder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(&scriptedProvider{})
	if _, _, err := b.Build(ctx, buildInput()); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestBuilder_NoProvider(t *testing.T) {
	if _, _, err := NewBuilder(nil).Build(context.Background(), nil); !errors.Is(err, ErrNoProvider) {
		t.Errorf("Build() error = %v, want ErrNoProvider", err)
	}
}
