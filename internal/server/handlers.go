package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/matsen/spacebio/internal/lookup"
	"github.com/matsen/spacebio/internal/publication"
	"github.com/matsen/spacebio/internal/semantic"
)

// Pagination defaults for /api/publications.
const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type semanticSearchRequest struct {
	Query     string   `json:"query" validate:"required"`
	Limit     *int     `json:"limit,omitempty" validate:"omitempty,gt=0"`
	Threshold *float32 `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
}

type semanticSearchResponse struct {
	Success                bool           `json:"success"`
	Query                  string         `json:"query"`
	Results                []lookup.Match `json:"results"`
	TotalFound             int            `json:"total_found"`
	SearchType             string         `json:"search_type"`
	MinSimilarityThreshold float32        `json:"min_similarity_threshold"`
	Model                  string         `json:"model"`
}

type searchResponse struct {
	Success bool `json:"success"`
	*lookup.Response
}

type publicationsResponse struct {
	Success bool                      `json:"success"`
	Data    []publication.Publication `json:"data"`
	Offset  int                       `json:"offset"`
	Limit   int                       `json:"limit"`
	Total   int                       `json:"total"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type healthResponse struct {
	Status               string `json:"status"`
	GraphLoaded          bool   `json:"graph_loaded"`
	SemanticSearchLoaded bool   `json:"semantic_search_loaded"`
	APIKeyAvailable      bool   `json:"api_key_available"`
	Nodes                int    `json:"nodes"`
	Edges                int    `json:"edges"`
	Publications         int    `json:"publications"`
	Embeddings           int    `json:"embeddings"`
	SnapshotID           string `json:"snapshot_id"`
}

func toMatches(hits []semantic.Hit) []lookup.Match {
	matches := make([]lookup.Match, len(hits))
	for i, h := range hits {
		score := h.Score
		matches[i] = lookup.Match{Publication: h.Publication, Score: &score}
	}
	return matches
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:               "healthy",
		GraphLoaded:          s.snap.Graph != nil,
		SemanticSearchLoaded: s.SemanticEnabled(),
		APIKeyAvailable:      s.apiKey,
		Nodes:                s.snap.Graph.NodeCount(),
		Edges:                s.snap.Graph.EdgeCount(),
		Publications:         len(s.snap.Publications),
		Embeddings:           s.snap.Index.Len(),
		SnapshotID:           s.snap.ID,
	})
}

// handleSemanticSearch handles POST /api/search/semantic.
func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		s.fail(w, r, errSemanticUnavailable)
		return
	}

	var req semanticSearchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	limit := s.search.Limit
	if req.Limit != nil {
		limit = *req.Limit
	}
	threshold := s.search.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	hits, err := s.searcher.Search(r.Context(), req.Query, limit, threshold)
	if s.metrics != nil {
		s.metrics.RecordSearch(string(lookup.Semantic), len(hits), err)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, semanticSearchResponse{
		Success:                true,
		Query:                  strings.TrimSpace(req.Query),
		Results:                toMatches(hits),
		TotalFound:             len(hits),
		SearchType:             string(lookup.Semantic),
		MinSimilarityThreshold: threshold,
		Model:                  s.searcher.ModelName(),
	})
}

// handleSearch handles GET /api/search: keyword search with semantic fallback.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", lookup.DefaultLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp, err := s.finder.Find(r.Context(), r.URL.Query().Get("q"), limit)
	if s.metrics != nil {
		searchType, results := string(lookup.Keyword), 0
		if resp != nil {
			searchType, results = string(resp.SearchType), resp.Total
		}
		s.metrics.RecordSearch(searchType, results, err)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, Response: resp})
}

// handleListPublications handles GET /api/publications.
func (s *Server) handleListPublications(w http.ResponseWriter, r *http.Request) {
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultPageSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if offset < 0 || limit <= 0 {
		s.fail(w, r, badRequest("offset must be >= 0 and limit > 0"))
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	pubs, err := s.snap.Catalog.ListAll(offset, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if pubs == nil {
		pubs = []publication.Publication{}
	}
	writeJSON(w, http.StatusOK, publicationsResponse{
		Success: true,
		Data:    pubs,
		Offset:  offset,
		Limit:   limit,
		Total:   len(s.snap.Publications),
	})
}

func publicationID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("publication id must be an integer, got %q", raw)
	}
	return id, nil
}

// handleGetPublication handles GET /api/publications/{id}.
func (s *Server) handleGetPublication(w http.ResponseWriter, r *http.Request) {
	id, err := publicationID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pub, ok := s.snap.Publication(id)
	if !ok {
		writeError(w, http.StatusNotFound, errPublicationNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: pub})
}

// handleSimilar handles GET /api/publications/{id}/similar.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, err := publicationID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", 10)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, ok := s.snap.Publication(id); !ok {
		writeError(w, http.StatusNotFound, errPublicationNotFound.Error())
		return
	}

	hits, err := s.snap.Similar(id, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: toMatches(hits)})
}
