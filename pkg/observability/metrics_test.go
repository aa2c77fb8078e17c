package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDecision(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordDecision("can_do", true)
	m.RecordDecision("can_do", false)
	m.RecordDecision("can_do", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuthzDecisionsTotal.WithLabelValues("can_do", "allowed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AuthzDecisionsTotal.WithLabelValues("can_do", "denied")))
}

func TestRecordCacheHitMiss(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordCacheHit("l1")
	m.RecordCacheHit("l1")
	m.RecordCacheMiss("l2")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("l1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("l2")))
}

func TestInstrumentHandler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	handler := m.InstrumentHandler("/v1/teams", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/teams", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/teams", "418")))
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordDecision("has_min_role", true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orghub_authz_decisions_total")
}
