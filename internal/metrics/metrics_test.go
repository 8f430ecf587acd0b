package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.AuthEvent("login", nil)
		m.AuditWriteFailed()
		m.AuditPurged(3)
		m.NotificationSent("device", true)
		m.ClientConnected()
		m.ClientDisconnected()
	})
}

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AuthEvent("login", nil)
	m.AuthEvent("login", errors.New("bad password"))
	m.AuthEvent("login", errors.New("bad password"))
	m.AuditWriteFailed()
	m.AuditPurged(5)
	m.AuditPurged(0)
	m.NotificationSent("topic", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.auditWriteFailures))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.auditPurgedEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsSent.WithLabelValues("topic", OutcomeFailure)))
}

func TestMetrics_InstrumentUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/videos/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/metrics", m.Handler().ServeHTTP)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/videos/{id}", "404")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/videos/{id}",status="404"} 1`))
}
