package server

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/matsen/spacebio/internal/graph"
	"github.com/matsen/spacebio/internal/viz"
)

// defaultCentralityLimit matches the top-10 lists of the statistics endpoint.
const defaultCentralityLimit = 10

type centralityResponse struct {
	Success bool          `json:"success"`
	Kind    graph.Kind    `json:"kind"`
	Data    []graph.Score `json:"data"`
}

type graphDataResponse struct {
	Success bool `json:"success"`
	graph.Export
}

type nodeSearchResult struct {
	Query      string          `json:"query"`
	Results    []graph.NodeRef `json:"results"`
	TotalFound int             `json:"total_found"`
}

// pathParam returns a URL parameter, decoding it when chi matched the raw path.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// handleStatistics handles GET /api/graph/statistics.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: graph.ComputeStatistics(s.snap.Graph)})
}

// handleCentrality handles GET /api/graph/centrality.
func (s *Server) handleCentrality(w http.ResponseWriter, r *http.Request) {
	kind := graph.Degree
	if raw := r.URL.Query().Get("kind"); raw != "" {
		k, err := graph.ParseKind(raw)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		kind = k
	}
	limit, err := intQuery(r, "limit", defaultCentralityLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	start := time.Now()
	scores, err := graph.Centrality(s.snap.Graph, kind, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordCentrality(string(kind), time.Since(start))
	}
	writeJSON(w, http.StatusOK, centralityResponse{Success: true, Kind: kind, Data: scores})
}

// handleGraphData handles GET /api/graph/data.
func (s *Server) handleGraphData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, graphDataResponse{Success: true, Export: s.snap.Graph.ToExport()})
}

// handleGraphExport handles GET /api/graph/export as a download.
func (s *Server) handleGraphExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="spacebio_knowledge_graph.json"`)
	writeJSON(w, http.StatusOK, s.snap.Graph.ToExport())
}

// handleAuthor handles GET /api/graph/author/{name}.
func (s *Server) handleAuthor(w http.ResponseWriter, r *http.Request) {
	info, err := s.snap.Graph.Author(pathParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: info})
}

// handleCollaborationNetwork handles GET /api/graph/author/{name}/collaboration-network.
func (s *Server) handleCollaborationNetwork(w http.ResponseWriter, r *http.Request) {
	depth, err := intQuery(r, "depth", graph.DefaultNetworkDepth)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	network, err := s.snap.Graph.CollaborationNetwork(pathParam(r, "name"), depth)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: network})
}

// handleTheme handles GET /api/graph/theme/{name}.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	info, err := s.snap.Graph.ThemeConnections(pathParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: info})
}

// handleKeyword handles GET /api/graph/keyword/{keyword}.
func (s *Server) handleKeyword(w http.ResponseWriter, r *http.Request) {
	min, err := intQuery(r, "min_co_occurrence", graph.DefaultMinCoOccurrence)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	info, err := s.snap.Graph.KeywordCoOccurrence(pathParam(r, "keyword"), min)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: info})
}

// handleGraphSearch handles GET /api/graph/search.
func (s *Server) handleGraphSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var nodeType graph.NodeType
	if raw := q.Get("type"); raw != "" {
		t, err := graph.ParseNodeType(raw)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		nodeType = t
	}
	limit, err := intQuery(r, "limit", graph.DefaultSearchLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	results, total, err := s.snap.Graph.SearchNodes(q.Get("q"), nodeType, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if results == nil {
		results = []graph.NodeRef{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: nodeSearchResult{
		Query:      strings.TrimSpace(q.Get("q")),
		Results:    results,
		TotalFound: total,
	}})
}

// handlePath handles GET /api/graph/path/{source}/{target}.
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	path, err := s.snap.Graph.ShortestPath(pathParam(r, "source"), pathParam(r, "target"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: path})
}

// handleVisualization handles GET /api/graph/visualization, serving the
// Cytoscape page for the most connected nodes.
func (s *Server) handleVisualization(w http.ResponseWriter, r *http.Request) {
	maxNodes, err := intQuery(r, "max_nodes", viz.DefaultMaxNodes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if maxNodes < 0 {
		s.fail(w, r, badRequest("max_nodes must be non-negative, got %d", maxNodes))
		return
	}
	opts := viz.DefaultOptions()
	if layout := r.URL.Query().Get("layout"); layout != "" {
		if !slices.Contains(viz.ValidLayouts, layout) {
			s.fail(w, r, badRequest("layout must be one of %s, got %q", strings.Join(viz.ValidLayouts, ", "), layout))
			return
		}
		opts.Layout = layout
	}

	page, err := viz.GenerateHTML(viz.FromGraph(s.snap.Graph, maxNodes), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(page))
}
