// Package dataset loads the immutable snapshot shared by the CLI and the HTTP server:
// publications, the embedding index, the knowledge graph and the keyword catalog.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/matsen/spacebio/internal/graph"
	"github.com/matsen/spacebio/internal/observability"
	"github.com/matsen/spacebio/internal/publication"
	"github.com/matsen/spacebio/internal/semantic"
	"github.com/matsen/spacebio/internal/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoPublications is returned when the publications file holds no records.
var ErrNoPublications = errors.New("no publications loaded")

// Options locate the snapshot inputs.
type Options struct {
	PublicationsPath string
	// EmbeddingsPath may be empty; semantic search is then unavailable.
	EmbeddingsPath string
	// CachePath is the msgpack index cache. Empty disables caching.
	CachePath string
	// RequireEmbeddings turns a missing embeddings file into an error.
	RequireEmbeddings bool
	Logger            zerolog.Logger
}

// Snapshot is built once and never mutated, so it can be shared by
// concurrent handlers without locking.
type Snapshot struct {
	ID           string
	LoadedAt     time.Time
	Publications []publication.Publication
	// Index is nil when no embeddings were loaded.
	Index   *semantic.Index
	Graph   *graph.Graph
	Catalog *storage.DB

	byID map[int]int
}

// Load reads the publications and derives every other part of the snapshot
// from them concurrently.
func Load(ctx context.Context, opts Options) (*Snapshot, error) {
	logger := observability.Component(opts.Logger, "dataset")
	start := time.Now()

	pubs, err := storage.ReadPublications(opts.PublicationsPath)
	if err != nil {
		return nil, err
	}
	if len(pubs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPublications, opts.PublicationsPath)
	}
	sort.Slice(pubs, func(i, j int) bool { return pubs[i].ID < pubs[j].ID })

	snap := newSnapshot(pubs)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		idx, err := loadIndex(gctx, opts, snap.has, logger)
		if err != nil {
			return err
		}
		snap.Index = idx
		return nil
	})
	g.Go(func() error {
		snap.Graph = graph.Build(pubs)
		return nil
	})
	g.Go(func() error {
		db, err := buildCatalog(pubs)
		if err != nil {
			return err
		}
		snap.Catalog = db
		return nil
	})
	if err := g.Wait(); err != nil {
		snap.Close()
		return nil, err
	}

	logger.Info().
		Str("snapshot_id", snap.ID).
		Int("publications", len(pubs)).
		Int("embeddings", snap.Index.Len()).
		Int("nodes", snap.Graph.NodeCount()).
		Int("edges", snap.Graph.EdgeCount()).
		Dur("duration", time.Since(start)).
		Msg("dataset loaded")
	return snap, nil
}

// New assembles a snapshot from records already in memory. The catalog is
// built in memory; idx may be nil.
func New(pubs []publication.Publication, idx *semantic.Index) (*Snapshot, error) {
	sorted := make([]publication.Publication, len(pubs))
	copy(sorted, pubs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	snap := newSnapshot(sorted)
	if idx != nil {
		idx.Restrict(snap.has)
		snap.Index = idx
	}
	snap.Graph = graph.Build(sorted)

	db, err := buildCatalog(sorted)
	if err != nil {
		return nil, err
	}
	snap.Catalog = db
	return snap, nil
}

func newSnapshot(pubs []publication.Publication) *Snapshot {
	byID := make(map[int]int, len(pubs))
	for i, p := range pubs {
		byID[p.ID] = i
	}
	return &Snapshot{
		ID:           uuid.NewString(),
		LoadedAt:     time.Now().UTC(),
		Publications: pubs,
		byID:         byID,
	}
}

func (s *Snapshot) has(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// Publication returns the record with the given index.
func (s *Snapshot) Publication(id int) (publication.Publication, bool) {
	i, ok := s.byID[id]
	if !ok {
		return publication.Publication{}, false
	}
	return s.Publications[i], true
}

// HasEmbeddings reports whether semantic search can run against this snapshot.
func (s *Snapshot) HasEmbeddings() bool {
	return s.Index.Len() > 0
}

// Similar returns the publications nearest to a stored one by embedding.
// It needs no provider.
func (s *Snapshot) Similar(id int, limit int) ([]semantic.Hit, error) {
	if !s.HasEmbeddings() {
		return nil, &semantic.ConfigurationError{Err: semantic.ErrIndexNotFound}
	}
	results, err := s.Index.FindSimilar(id, limit)
	if err != nil {
		return nil, err
	}
	hits := make([]semantic.Hit, 0, len(results))
	for _, r := range results {
		if pub, ok := s.Publication(r.PublicationID); ok {
			hits = append(hits, semantic.Hit{Publication: pub, Score: r.Similarity})
		}
	}
	return hits, nil
}

// Close releases the keyword catalog.
func (s *Snapshot) Close() error {
	if s == nil || s.Catalog == nil {
		return nil
	}
	return s.Catalog.Close()
}

func loadIndex(ctx context.Context, opts Options, known func(int) bool, logger zerolog.Logger) (*semantic.Index, error) {
	if opts.EmbeddingsPath == "" {
		if opts.RequireEmbeddings {
			return nil, &semantic.ConfigurationError{Err: semantic.ErrIndexNotFound}
		}
		logger.Warn().Msg("no embeddings file configured; semantic search disabled")
		return nil, nil
	}
	if _, err := os.Stat(opts.EmbeddingsPath); err != nil && !cacheExists(opts.CachePath) {
		if opts.RequireEmbeddings {
			return nil, &semantic.ConfigurationError{Path: opts.EmbeddingsPath, Err: semantic.ErrIndexNotFound}
		}
		logger.Warn().Str("path", opts.EmbeddingsPath).Msg("embeddings file not found; semantic search disabled")
		return nil, nil
	}

	idx, cached, err := semantic.LoadCached(opts.EmbeddingsPath, opts.CachePath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The cache mirrors the embeddings file. Orphans are dropped only from the
	// in-memory copy so they come back once their publication appears.
	if !cached && opts.CachePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.CachePath), 0755); err != nil {
			logger.Warn().Err(err).Msg("creating cache directory")
		} else if err := idx.Save(opts.CachePath); err != nil {
			logger.Warn().Err(err).Str("path", opts.CachePath).Msg("writing index cache")
		}
	}

	if orphans := idx.Restrict(known); len(orphans) > 0 {
		logger.Warn().Ints("ids", orphans).Int("count", len(orphans)).Msg("dropping embeddings without a publication")
	}
	if idx.Len() == 0 {
		return nil, &semantic.ConfigurationError{Path: opts.EmbeddingsPath, Err: semantic.ErrEmptyIndex}
	}
	logger.Debug().Bool("cached", cached).Int("embeddings", idx.Len()).Str("model", idx.ModelName).Msg("embedding index loaded")
	return idx, nil
}

func cacheExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func buildCatalog(pubs []publication.Publication) (*storage.DB, error) {
	db, err := storage.OpenDB(storage.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if _, err := db.Rebuild(pubs); err != nil {
		db.Close()
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	return db, nil
}
