package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/graph"
	"github.com/matsen/spacebio/internal/lookup"
	"github.com/matsen/spacebio/internal/semantic"
)

// maxRequestBodySize limits request bodies to 1 MB.
const maxRequestBodySize = 1 << 20

var (
	errBadRequest          = errors.New("bad request")
	errPublicationNotFound = errors.New("publication not found")
	errSemanticUnavailable = errors.New("semantic search not available")
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Headers are sent; an encoding failure can only be dropped.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Success: false, Error: message})
}

// fail maps err to a status code and writes it. Unexpected errors are logged
// and reported without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal server error"
	}
	writeError(w, status, msg)
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	var pe *embedding.ProviderError
	switch {
	case errors.As(err, &pe):
		if pe.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, errBadRequest),
		errors.Is(err, semantic.ErrValidation),
		errors.Is(err, lookup.ErrEmptyQuery),
		errors.Is(err, graph.ErrInvalidLimit),
		errors.Is(err, graph.ErrInvalidDepth),
		errors.Is(err, graph.ErrUnknownKind),
		errors.Is(err, graph.ErrUnknownNodeType),
		errors.Is(err, graph.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrNodeNotFound),
		errors.Is(err, errPublicationNotFound),
		errors.Is(err, semantic.ErrPublicationNotIndexed):
		return http.StatusNotFound
	case errors.Is(err, errSemanticUnavailable),
		semantic.IsConfigurationError(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, graph.ErrEmptyGraph):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// badRequest wraps a message so statusFor reports 400.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeJSON reads a size-limited JSON body into v and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON request body")
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return badRequest("%s failed %q validation", fe.Field(), fe.Tag())
		}
		return badRequest("%v", err)
	}
	return nil
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}
