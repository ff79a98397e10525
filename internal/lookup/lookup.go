// Package lookup composes keyword search with a semantic fallback.
//
// The catalog is queried first; only when it finds nothing is the query
// embedded and run against the semantic index. Neither searcher knows about
// the other.
package lookup

import (
	"context"
	"errors"
	"strings"

	"github.com/matsen/spacebio/internal/observability"
	"github.com/matsen/spacebio/internal/publication"
	"github.com/matsen/spacebio/internal/semantic"
	"github.com/rs/zerolog"
)

// SearchType reports which searcher produced a response.
type SearchType string

const (
	Keyword  SearchType = "keyword"
	Semantic SearchType = "semantic"
)

// DefaultLimit caps results when the caller passes a non-positive limit.
const DefaultLimit = 20

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = errors.New("query must not be empty")

// KeywordSearcher matches publications by text.
type KeywordSearcher interface {
	Search(query string, limit int) ([]publication.Publication, error)
}

// SemanticSearcher ranks publications by embedding similarity.
type SemanticSearcher interface {
	Search(ctx context.Context, query string, limit int, threshold float32) ([]semantic.Hit, error)
}

// Match is one publication in a response. Score is set for semantic matches only.
type Match struct {
	publication.Publication
	Score *float32 `json:"similarity_score,omitempty"`
}

// Response is the outcome of Find.
type Response struct {
	Query      string     `json:"query"`
	SearchType SearchType `json:"search_type"`
	Results    []Match    `json:"results"`
	Total      int        `json:"total_found"`
}

// Finder runs keyword search and falls back to semantic search on zero results.
type Finder struct {
	keyword   KeywordSearcher
	semantic  SemanticSearcher
	threshold float32
	logger    zerolog.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithSemantic enables the fallback. Without it a keyword miss returns no results.
func WithSemantic(s SemanticSearcher) Option {
	return func(f *Finder) {
		f.semantic = s
	}
}

// WithThreshold sets the similarity threshold used by the fallback.
func WithThreshold(threshold float32) Option {
	return func(f *Finder) {
		f.threshold = threshold
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Finder) {
		f.logger = observability.Component(logger, "lookup")
	}
}

// NewFinder creates a Finder over the keyword catalog.
func NewFinder(keyword KeywordSearcher, opts ...Option) *Finder {
	f := &Finder{
		keyword:   keyword,
		threshold: semantic.DefaultThreshold,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CanFallback reports whether a semantic searcher is configured.
func (f *Finder) CanFallback() bool {
	return f.semantic != nil
}

// Find searches the catalog for query and, when nothing matches and a
// semantic searcher is configured, returns semantic hits instead.
func (f *Finder) Find(ctx context.Context, query string, limit int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	pubs, err := f.keyword.Search(query, limit)
	if err != nil {
		return nil, err
	}
	if len(pubs) > 0 || f.semantic == nil {
		matches := make([]Match, len(pubs))
		for i, p := range pubs {
			matches[i] = Match{Publication: p}
		}
		return &Response{Query: query, SearchType: Keyword, Results: matches, Total: len(matches)}, nil
	}

	l := observability.WithSearchContext(f.logger, string(Semantic), limit)
	l.Debug().Str("query", query).Msg("no keyword matches, trying semantic search")
	hits, err := f.semantic.Search(ctx, query, limit, f.threshold)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, len(hits))
	for i, h := range hits {
		score := h.Score
		matches[i] = Match{Publication: h.Publication, Score: &score}
	}
	return &Response{Query: query, SearchType: Semantic, Results: matches, Total: len(matches)}, nil
}
