// Package metrics exposes frame pipeline counters via Prometheus.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all frame pipeline metrics. Counters are plain atomics so
// the hot path never touches a Prometheus collector; the registry reads
// them lazily on scrape.
type Metrics struct {
	FramesReceived  atomic.Uint64
	FramesDropped   atomic.Uint64
	FramesProcessed atomic.Uint64
	ConvertErrors   atomic.Uint64
	DetectErrors    atomic.Uint64
	PosesDetected   atomic.Uint64

	DetectLatencyMs atomic.Uint64

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.registerPrometheusMetrics()

	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "posecam_frames_received_total",
			Help: "Total frames delivered by the camera stream",
		},
		func() float64 { return float64(m.FramesReceived.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "posecam_frames_dropped_total",
			Help: "Total frames dropped because a frame was already in flight",
		},
		func() float64 { return float64(m.FramesDropped.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "posecam_frames_processed_total",
			Help: "Total frames converted and sent through the detector",
		},
		func() float64 { return float64(m.FramesProcessed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "posecam_convert_errors_total",
			Help: "Total frames dropped during buffer conversion",
		},
		func() float64 { return float64(m.ConvertErrors.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "posecam_detect_errors_total",
			Help: "Total detector invocations that returned an error",
		},
		func() float64 { return float64(m.DetectErrors.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "posecam_poses_detected_total",
			Help: "Total poses reported by the detector",
		},
		func() float64 { return float64(m.PosesDetected.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "posecam_detect_latency_ms",
			Help: "Latency of the most recent detector call in milliseconds",
		},
		func() float64 { return float64(m.DetectLatencyMs.Load()) },
	))
}

// UpdateDetectLatency records the duration of a detector call.
func (m *Metrics) UpdateDetectLatency(d time.Duration) {
	m.DetectLatencyMs.Store(uint64(d.Milliseconds()))
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
