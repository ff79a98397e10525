// Package server exposes the snapshot over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/matsen/spacebio/internal/dataset"
	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/lookup"
	"github.com/matsen/spacebio/internal/observability"
	"github.com/matsen/spacebio/internal/semantic"
	"github.com/rs/zerolog"
)

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	// ShutdownTimeout bounds Shutdown when the caller's context has no deadline.
	ShutdownTimeout time.Duration
	// CORSOrigins are the browser origins allowed to call the API. Empty
	// disables CORS headers.
	CORSOrigins []string
}

// SearchDefaults apply when a request leaves limit or threshold unset.
type SearchDefaults struct {
	Limit     int
	Threshold float32
	Timeout   time.Duration
}

// Options are the server dependencies. Provider and Metrics may be nil.
type Options struct {
	Snapshot *dataset.Snapshot
	Provider embedding.Provider
	Metrics  *observability.Metrics
	Logger   zerolog.Logger
	Search   SearchDefaults
	// APIKeyAvailable is reported by /api/health.
	APIKeyAvailable bool
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	snap       *dataset.Snapshot
	searcher   *semantic.Searcher
	finder     *lookup.Finder
	metrics    *observability.Metrics
	validate   *validator.Validate
	search     SearchDefaults
	apiKey     bool
	cors       []string
	shutdown   time.Duration
	logger     zerolog.Logger
}

// New creates a server over the snapshot. Semantic search is disabled, and
// its routes answer 503, when no provider is given or the snapshot has no
// usable embeddings.
func New(cfg Config, opts Options) (*Server, error) {
	if opts.Snapshot == nil {
		return nil, errors.New("server: snapshot is required")
	}
	if opts.Search.Limit <= 0 {
		opts.Search.Limit = semantic.DefaultLimit
	}
	if opts.Search.Timeout <= 0 {
		opts.Search.Timeout = semantic.DefaultTimeout
	}

	s := &Server{
		snap:     opts.Snapshot,
		metrics:  opts.Metrics,
		validate: validator.New(),
		search:   opts.Search,
		apiKey:   opts.APIKeyAvailable,
		cors:     cfg.CORSOrigins,
		shutdown: cfg.ShutdownTimeout,
		logger:   observability.Component(opts.Logger, "http-server"),
	}

	var finderOpts []lookup.Option
	if opts.Provider != nil && s.snap.HasEmbeddings() {
		provider := opts.Provider
		if s.metrics != nil {
			provider = &meteredProvider{Provider: provider, metrics: s.metrics}
		}
		searcher, err := semantic.NewSearcher(provider, s.snap.Index, s.snap,
			semantic.WithTimeout(opts.Search.Timeout),
			semantic.WithLogger(opts.Logger),
		)
		if err != nil {
			s.logger.Warn().Err(err).Msg("semantic search disabled")
		} else {
			s.searcher = searcher
			finderOpts = append(finderOpts, lookup.WithSemantic(searcher))
		}
	}
	finderOpts = append(finderOpts, lookup.WithThreshold(opts.Search.Threshold), lookup.WithLogger(opts.Logger))
	s.finder = lookup.NewFinder(s.snap.Catalog, finderOpts...)

	if s.metrics != nil {
		g := s.snap.Graph
		s.metrics.SetSnapshot(len(s.snap.Publications), s.snap.Index.Len(), g.NodeCount(), g.EdgeCount())
	}

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SemanticEnabled reports whether semantic search can be served.
func (s *Server) SemanticEnabled() bool {
	return s.searcher != nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(correlationIDMiddleware)
	r.Use(s.accessLogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/search/semantic", s.handleSemanticSearch)
		r.Get("/search", s.handleSearch)

		r.Get("/publications", s.handleListPublications)
		r.Get("/publications/{id}", s.handleGetPublication)
		r.Get("/publications/{id}/similar", s.handleSimilar)

		r.Route("/graph", func(r chi.Router) {
			r.Get("/statistics", s.handleStatistics)
			r.Get("/centrality", s.handleCentrality)
			r.Get("/data", s.handleGraphData)
			r.Get("/export", s.handleGraphExport)
			r.Get("/author/{name}", s.handleAuthor)
			r.Get("/author/{name}/collaboration-network", s.handleCollaborationNetwork)
			r.Get("/theme/{name}", s.handleTheme)
			r.Get("/keyword/{keyword}", s.handleKeyword)
			r.Get("/search", s.handleGraphSearch)
			r.Get("/path/{source}/{target}", s.handlePath)
			r.Get("/visualization", s.handleVisualization)
		})
	})

	return r
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info().
		Str("address", ln.Addr().String()).
		Str("snapshot_id", s.snap.ID).
		Bool("semantic_search", s.SemanticEnabled()).
		Msg("HTTP server starting")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server, waiting at most
// ShutdownTimeout unless ctx already carries a deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("HTTP server shutting down")
	if _, ok := ctx.Deadline(); !ok && s.shutdown > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdown)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}
