package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the frontend's Prometheus collectors. All recording methods
// are safe on a nil receiver so callers can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	uploads        *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
	relaySessions  prometheus.Gauge
	relayFrames    *prometheus.CounterVec
	relayDropped   *prometheus.CounterVec
	chartRenders   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helmetguard_uploads_total",
			Help: "Uploads forwarded to the detection backend",
		}, []string{"kind", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helmetguard_backend_request_seconds",
			Help:    "Latency of detection backend requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		relaySessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helmetguard_relay_sessions_active",
			Help: "Live frame relay sessions currently streaming",
		}),
		relayFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helmetguard_relay_frames_total",
			Help: "Frames relayed through stream sessions",
		}, []string{"endpoint", "direction"}),
		relayDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helmetguard_relay_frames_dropped_total",
			Help: "Frames dropped because the consumer was behind",
		}, []string{"endpoint"}),
		chartRenders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helmetguard_chart_renders_total",
			Help: "Statistics chart images rendered",
		}),
	}

	m.registry.MustRegister(
		m.uploads,
		m.backendLatency,
		m.relaySessions,
		m.relayFrames,
		m.relayDropped,
		m.chartRenders,
		prometheus.NewGoCollector(),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Upload(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.uploads.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveBackend(endpoint string, start time.Time) {
	if m == nil {
		return
	}
	m.backendLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.relaySessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.relaySessions.Dec()
}

func (m *Metrics) FrameIn(endpoint string) {
	if m == nil {
		return
	}
	m.relayFrames.WithLabelValues(endpoint, "in").Inc()
}

func (m *Metrics) FrameOut(endpoint string) {
	if m == nil {
		return
	}
	m.relayFrames.WithLabelValues(endpoint, "out").Inc()
}

func (m *Metrics) FrameDropped(endpoint string) {
	if m == nil {
		return
	}
	m.relayDropped.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) ChartRendered() {
	if m == nil {
		return
	}
	m.chartRenders.Inc()
}
