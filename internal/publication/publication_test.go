package publication

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	p := Publication{
		ID:       1,
		Title:    "  Bone loss in microgravity ",
		Authors:  []string{"Jane Doe", "  ", "", " John Roe"},
		Keywords: nil,
		Theme:    " Bone ",
	}
	p.Normalize()

	if p.Title != "Bone loss in microgravity" {
		t.Errorf("Title = %q", p.Title)
	}
	if len(p.Authors) != 2 || p.Authors[1] != "John Roe" {
		t.Errorf("Authors = %v, want [Jane Doe John Roe]", p.Authors)
	}
	if p.Keywords == nil || len(p.Keywords) != 0 {
		t.Errorf("Keywords = %v, want empty non-nil slice", p.Keywords)
	}
	if p.Theme != "Bone" {
		t.Errorf("Theme = %q, want Bone", p.Theme)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		pub     Publication
		wantErr error
	}{
		{"valid", Publication{ID: 0, Title: "ok"}, nil},
		{"negative id", Publication{ID: -1, Title: "ok"}, ErrNegativeID},
		{"empty title", Publication{ID: 3, Title: "   "}, ErrEmptyTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pub.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAll_Duplicate(t *testing.T) {
	pubs := []Publication{
		{ID: 1, Title: "a"},
		{ID: 2, Title: "b"},
		{ID: 1, Title: "c"},
	}
	err := ValidateAll(pubs)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("ValidateAll() = %v, want ErrDuplicateID", err)
	}
	if !strings.Contains(err.Error(), "record 2") {
		t.Errorf("error %q should name record 2", err)
	}
}

func TestEmbeddingContent(t *testing.T) {
	p := Publication{
		Title:    "Plant growth",
		Summary:  "Roots grow",
		Impact:   "Food in space",
		Theme:    "Plants",
		Keywords: []string{"arabidopsis", "roots"},
	}
	want := "Title: Plant growth\nSummary: Roots grow\nImpact: Food in space\nTheme: Plants\nKeywords: arabidopsis, roots"
	if got := p.EmbeddingContent(); got != want {
		t.Errorf("EmbeddingContent() = %q, want %q", got, want)
	}
}

func TestHasContent(t *testing.T) {
	if (&Publication{Title: "only title"}).HasContent() {
		t.Error("title-only record should not have content")
	}
	if !(&Publication{Title: "t", Abstract: "a"}).HasContent() {
		t.Error("record with abstract should have content")
	}
}

func TestFormatAuthorsShort(t *testing.T) {
	tests := []struct {
		authors []string
		max     int
		want    string
	}{
		{nil, 3, ""},
		{[]string{"A", "B"}, 3, "A, B"},
		{[]string{"A", "B", "C", "D"}, 3, "A, B, C, et al."},
	}
	for _, tt := range tests {
		if got := FormatAuthorsShort(tt.authors, tt.max); got != tt.want {
			t.Errorf("FormatAuthorsShort(%v, %d) = %q, want %q", tt.authors, tt.max, got, tt.want)
		}
	}
}
