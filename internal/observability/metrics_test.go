package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Independent(t *testing.T) {
	// Each instance owns its registry, so creating two must not panic.
	a := NewMetrics()
	b := NewMetrics()

	a.Searches.WithLabelValues("semantic", "ok").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Searches.WithLabelValues("semantic", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Searches.WithLabelValues("semantic", "ok")))
}

func TestRecordRequest(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("GET", "/api/health", 200, 5*time.Millisecond)
	m.RecordRequest("GET", "/api/health", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/health", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestRecordSearch(t *testing.T) {
	m := NewMetrics()
	m.RecordSearch("keyword", 3, nil)
	m.RecordSearch("semantic", 0, errors.New("provider down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("keyword", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("semantic", "error")))
}

func TestRecordProviderAndCentrality(t *testing.T) {
	m := NewMetrics()
	m.RecordProvider("timeout", 10*time.Second)
	m.RecordCentrality("betweenness", 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("timeout")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CentralityDuration))
}

func TestSetSnapshot(t *testing.T) {
	m := NewMetrics()
	m.SetSnapshot(608, 600, 4200, 15000)

	assert.Equal(t, 608.0, testutil.ToFloat64(m.Publications))
	assert.Equal(t, 600.0, testutil.ToFloat64(m.Embeddings))
	assert.Equal(t, 4200.0, testutil.ToFloat64(m.GraphNodes))
	assert.Equal(t, 15000.0, testutil.ToFloat64(m.GraphEdges))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.SetSnapshot(1, 1, 2, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "spacebio_publications 1")
	assert.Contains(t, string(body), "go_goroutines")
}
