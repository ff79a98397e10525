package semantic

import (
	"context"
	"fmt"
	"time"

	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/publication"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerSecond paces provider calls during a build.
const DefaultRequestsPerSecond = 1.0

// ProgressReporter receives progress updates during index building.
type ProgressReporter interface {
	// OnProgress is called with the current progress.
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}

// Builder embeds publications one at a time and collects the vectors into an Index.
type Builder struct {
	provider        embedding.Provider
	limiter         *rate.Limiter
	progress        ProgressReporter
	continueOnError bool
	logger          zerolog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRate sets the maximum provider requests per second. Zero or less disables pacing.
func WithRate(perSecond float64) BuilderOption {
	return func(b *Builder) {
		if perSecond <= 0 {
			b.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithProgress sets the progress reporter.
func WithProgress(reporter ProgressReporter) BuilderOption {
	return func(b *Builder) {
		b.progress = reporter
	}
}

// WithContinueOnError records failed publications instead of aborting the build.
func WithContinueOnError(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.continueOnError = enabled
	}
}

// WithBuildLogger sets the logger used while building.
func WithBuildLogger(logger zerolog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a new index builder.
func NewBuilder(provider embedding.Provider, opts ...BuilderOption) *Builder {
	b := &Builder{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build embeds every publication with content. Publications with nothing to
// embed are skipped. A provider failure aborts the build unless
// WithContinueOnError is set, in which case the ID is listed in stats.Failed.
func (b *Builder) Build(ctx context.Context, pubs []publication.Publication) (*Index, *BuildStats, error) {
	if b.provider == nil {
		return nil, nil, ErrNoProvider
	}
	start := time.Now()

	idx := NewIndex(b.provider.ModelName(), b.provider.Dimensions())
	stats := &BuildStats{}
	total := len(pubs)

	for i := range pubs {
		pub := &pubs[i]
		if b.progress != nil {
			b.progress.OnProgress(i+1, total)
		}

		if !pub.HasContent() {
			stats.Skipped = append(stats.Skipped, pub.ID)
			continue
		}

		if err := b.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}

		emb, err := b.provider.Embed(ctx, pub.EmbeddingContent())
		if err == nil {
			err = idx.Add(pub.ID, emb.Vector)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			if !b.continueOnError {
				return nil, nil, fmt.Errorf("embedding publication %d: %w", pub.ID, err)
			}
			b.logger.Warn().Err(err).Int("publication", pub.ID).Msg("skipping publication")
			stats.Failed = append(stats.Failed, pub.ID)
			continue
		}
		stats.Indexed++
	}

	stats.Duration = time.Since(start)
	b.logger.Info().
		Int("indexed", stats.Indexed).
		Int("skipped", len(stats.Skipped)).
		Int("failed", len(stats.Failed)).
		Dur("duration", stats.Duration).
		Msg("index built")
	return idx, stats, nil
}
