package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/observability"
)

// correlationIDMiddleware ensures every request has a correlation ID.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		w.Header().Set("X-Correlation-ID", correlationID)
		ctx := observability.WithRequestID(r.Context(), correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware lets the configured browser origins call the API and
// answers preflight requests.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.cors) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		allowed, wildcard := false, false
		for _, o := range s.cors {
			if o == "*" {
				allowed, wildcard = true, true
				break
			}
			if o == origin {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			if wildcard {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Correlation-ID")
			w.Header().Set("Access-Control-Expose-Headers", "X-Correlation-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLogMiddleware logs each request and records it in the metrics.
func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if s.metrics != nil {
			s.metrics.RecordRequest(r.Method, route, status, elapsed)
		}

		event := s.logger.Info()
		if status >= http.StatusInternalServerError {
			event = s.logger.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("correlation_id", observability.RequestIDFromContext(r.Context())).
			Msg("request")
	})
}

// meteredProvider records provider latency and outcome.
type meteredProvider struct {
	embedding.Provider
	metrics *observability.Metrics
}

func (p *meteredProvider) Embed(ctx context.Context, text string) (embedding.Embedding, error) {
	start := time.Now()
	emb, err := p.Provider.Embed(ctx, text)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		var pe *embedding.ProviderError
		if (errors.As(err, &pe) && pe.Timeout()) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
	}
	p.metrics.RecordProvider(outcome, time.Since(start))
	return emb, err
}
