// Package metrics holds the prometheus collectors of the service. Collectors
// are registered on a caller-supplied registry and every recording method is
// safe to call on a nil *Metrics.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	authEvents          *prometheus.CounterVec
	auditWriteFailures  prometheus.Counter
	auditPurgedEntries  prometheus.Counter
	notificationsSent   *prometheus.CounterVec
	notificationClients prometheus.Gauge
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Authentication events by kind and outcome.",
		}, []string{"event", "outcome"}),
		auditWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Activity log entries that could not be stored.",
		}),
		auditPurgedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_purged_entries_total",
			Help: "Activity log entries removed by retention cleanup.",
		}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Push notifications by delivery kind and outcome.",
		}, []string{"kind", "outcome"}),
		notificationClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_clients",
			Help: "Connected push notification clients.",
		}),
	}

	reg.MustRegister(
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.authEvents,
		m.auditWriteFailures,
		m.auditPurgedEntries,
		m.notificationsSent,
		m.notificationClients,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) AuthEvent(event string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.authEvents.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) AuditWriteFailed() {
	if m == nil {
		return
	}
	m.auditWriteFailures.Inc()
}

func (m *Metrics) AuditPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.auditPurgedEntries.Add(float64(n))
}

func (m *Metrics) NotificationSent(kind string, delivered bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !delivered {
		outcome = OutcomeFailure
	}
	m.notificationsSent.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.notificationClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.notificationClients.Dec()
}

// Instrument records request count, latency and in-flight requests. Paths
// are labelled with the matched chi route pattern to keep cardinality flat.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := strconv.Itoa(sw.code)

		m.httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the instrumentation.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.code = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
