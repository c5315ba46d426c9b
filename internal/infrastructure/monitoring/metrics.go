package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portalconnect"

// Metrics holds all Prometheus metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Portal message metrics
	MessagesTotal  *prometheus.CounterVec
	PortalRenders  *prometheus.CounterVec
	ScriptDuration prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time
	snapshot  Snapshot
	mu        sync.RWMutex
}

// Snapshot holds current values for the JSON status endpoint
type Snapshot struct {
	TotalRequests int64            `json:"total_requests"`
	TotalErrors   int64            `json:"total_errors"`
	Messages      map[string]int64 `json:"messages"`
	Renders       int64            `json:"renders"`
	Connections   int64            `json:"ws_connections"`
	UptimeSeconds float64          `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry:  reg,
		startTime: time.Now(),
		snapshot:  Snapshot{Messages: make(map[string]int64)},

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Portal messages handled, by outcome",
			},
			[]string{"outcome"},
		),
		PortalRenders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "portal_renders_total",
				Help:      "Portal pages rendered, by status",
			},
			[]string{"status"},
		),
		ScriptDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "script_duration_seconds",
				Help:      "Time spent running portal scripts",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Number of open event stream connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_messages_total",
				Help:      "Event stream frames, by direction and type",
			},
			[]string{"direction", "type"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// ObserveMessage records the outcome of one handled portal message.
// It satisfies connect.Observer.
func (m *Metrics) ObserveMessage(outcome string) {
	m.MessagesTotal.WithLabelValues(outcome).Inc()

	m.mu.Lock()
	m.snapshot.Messages[outcome]++
	m.mu.Unlock()
}

// RecordRender records a portal render and the time its scripts took
func (m *Metrics) RecordRender(status string, scripts time.Duration) {
	m.PortalRenders.WithLabelValues(status).Inc()
	if scripts > 0 {
		m.ScriptDuration.Observe(scripts.Seconds())
	}

	m.mu.Lock()
	m.snapshot.Renders++
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket frame
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.Connections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.Connections--
	m.mu.Unlock()
}

// Snapshot returns a copy of the current counters
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.snapshot
	out.Messages = make(map[string]int64, len(m.snapshot.Messages))
	for k, v := range m.snapshot.Messages {
		out.Messages[k] = v
	}
	out.UptimeSeconds = time.Since(m.startTime).Seconds()
	return out
}
