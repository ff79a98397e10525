package semantic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/observability"
	"github.com/matsen/spacebio/internal/publication"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds the provider call made for each search.
const DefaultTimeout = 10 * time.Second

// PublicationSource resolves publication IDs to records.
type PublicationSource interface {
	Publication(id int) (publication.Publication, bool)
}

// Searcher answers similarity queries: it embeds the query with a provider
// and scans an immutable Index.
type Searcher struct {
	provider embedding.Provider
	index    *Index
	pubs     PublicationSource
	timeout  time.Duration
	logger   zerolog.Logger
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithTimeout sets the per-search provider timeout.
func WithTimeout(d time.Duration) SearcherOption {
	return func(s *Searcher) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(logger zerolog.Logger) SearcherOption {
	return func(s *Searcher) {
		s.logger = observability.Component(logger, "semantic-search")
	}
}

// NewSearcher creates a Searcher. It fails with a *ConfigurationError when the
// index is empty or its dimensionality disagrees with the provider.
func NewSearcher(provider embedding.Provider, index *Index, pubs PublicationSource, opts ...SearcherOption) (*Searcher, error) {
	if provider == nil {
		return nil, &ConfigurationError{Err: ErrNoProvider}
	}
	if index.Len() == 0 {
		return nil, &ConfigurationError{Err: ErrEmptyIndex}
	}
	if dims := provider.Dimensions(); dims > 0 && dims != index.Dimensions {
		return nil, &ConfigurationError{Err: fmt.Errorf("%w: provider %s yields %d, index has %d",
			ErrDimensionMismatch, provider.ModelName(), dims, index.Dimensions)}
	}

	s := &Searcher{
		provider: provider,
		index:    index,
		pubs:     pubs,
		timeout:  DefaultTimeout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search returns publications whose similarity to query is at least threshold.
//
// Invalid input is rejected before the provider is called. A provider failure,
// including the timeout, is returned as *embedding.ProviderError and never as
// an empty result.
func (s *Searcher) Search(ctx context.Context, query string, limit int, threshold float32) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if err := ValidateRequest(limit, threshold); err != nil {
		return nil, err
	}

	start := time.Now()
	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("query embedding failed")
		return nil, err
	}

	results, err := s.index.Search(vector, limit, threshold)
	if err != nil {
		if errors.Is(err, ErrDimensionMismatch) {
			return nil, &ConfigurationError{Err: err}
		}
		return nil, err
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		pub, ok := s.pubs.Publication(r.PublicationID)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Publication: pub, Score: r.Similarity})
	}

	l := observability.WithSearchContext(s.logger, "semantic", limit)
	l.Debug().
		Int("results", len(hits)).
		Float32("threshold", threshold).
		Dur("elapsed", time.Since(start)).
		Msg("semantic search")
	return hits, nil
}

// ModelName returns the provider's model name.
func (s *Searcher) ModelName() string {
	return s.provider.ModelName()
}

// Index returns the underlying index.
func (s *Searcher) Index() *Index {
	return s.index
}

func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	emb, err := s.provider.Embed(ctx, query)
	if err != nil {
		if embedding.IsProviderError(err) {
			return nil, err
		}
		return nil, &embedding.ProviderError{Provider: s.provider.ModelName(), Op: "embed", Err: err}
	}
	return emb.Vector, nil
}
