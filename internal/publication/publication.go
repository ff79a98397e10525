// Package publication defines the publication record shared by search and the knowledge graph.
package publication

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by publication validation.
var (
	ErrNegativeID  = errors.New("publication index must be non-negative")
	ErrEmptyTitle  = errors.New("publication title is required")
	ErrDuplicateID = errors.New("duplicate publication index")
)

// Publication is a single scraped space-biology publication.
type Publication struct {
	ID              int      `json:"index"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Abstract        string   `json:"abstract,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Impact          string   `json:"impact,omitempty"`
	Theme           string   `json:"theme,omitempty"`
	Keywords        []string `json:"keywords"`
	DOI             string   `json:"doi,omitempty"`
	PublicationDate string   `json:"publication_date,omitempty"`
	Journal         string   `json:"journal,omitempty"`
	URL             string   `json:"url,omitempty"`
}

// Normalize trims text fields and drops blank authors and keywords.
// Null lists become empty lists so JSON output is stable.
func (p *Publication) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Theme = strings.TrimSpace(p.Theme)
	p.Journal = strings.TrimSpace(p.Journal)
	p.DOI = strings.TrimSpace(p.DOI)
	p.PublicationDate = strings.TrimSpace(p.PublicationDate)
	p.Authors = compact(p.Authors)
	p.Keywords = compact(p.Keywords)
}

// Validate checks the invariants every loaded record must satisfy.
func (p *Publication) Validate() error {
	if p.ID < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeID, p.ID)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w (index %d)", ErrEmptyTitle, p.ID)
	}
	return nil
}

// EmbeddingContent builds the text sent to the embedding provider for this record.
func (p *Publication) EmbeddingContent() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Summary: %s\n", p.Summary)
	fmt.Fprintf(&b, "Impact: %s\n", p.Impact)
	fmt.Fprintf(&b, "Theme: %s\n", p.Theme)
	fmt.Fprintf(&b, "Keywords: %s", strings.Join(p.Keywords, ", "))
	return b.String()
}

// HasContent reports whether the record carries enough text to embed.
func (p *Publication) HasContent() bool {
	return p.Title != "" && (p.Summary != "" || p.Abstract != "" || p.Impact != "")
}

// ValidateAll normalizes and validates a full publication list.
// It rejects duplicate IDs since the ID is the join key with embeddings.
func ValidateAll(pubs []Publication) error {
	seen := make(map[int]bool, len(pubs))
	for i := range pubs {
		pubs[i].Normalize()
		if err := pubs[i].Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if seen[pubs[i].ID] {
			return fmt.Errorf("record %d: %w: %d", i, ErrDuplicateID, pubs[i].ID)
		}
		seen[pubs[i].ID] = true
	}
	return nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
