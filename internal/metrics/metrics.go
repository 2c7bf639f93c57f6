// Package metrics exports frame statistics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coreman2200/radioshack-strip/strip"
)

// Recorder implements strip.Observer.
type Recorder struct {
	frames   prometheus.Counter
	bits     prometheus.Counter
	wait     prometheus.Histogram
	duration prometheus.Histogram
	reg      *prometheus.Registry
}

// New registers the strip metrics on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rsstrip",
			Subsystem: "frame",
			Name:      "sent_total",
			Help:      "Frames sent to the strip",
		}),
		bits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rsstrip",
			Subsystem: "frame",
			Name:      "bits_total",
			Help:      "Bit pulses sent to the strip",
		}),
		wait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rsstrip",
			Subsystem: "frame",
			Name:      "latch_wait_seconds",
			Help:      "Time spent waiting out the latch before a frame",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 2, 12),
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rsstrip",
			Subsystem: "frame",
			Name:      "duration_seconds",
			Help:      "Time the line was held for one frame",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 2, 14),
		}),
		reg: reg,
	}
}

func (r *Recorder) FrameSent(f strip.FrameStats) {
	r.frames.Inc()
	r.bits.Add(float64(f.Bits))
	r.wait.Observe(f.Wait.Seconds())
	r.duration.Observe(f.Duration.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Registry is exposed for tests and for embedding in a larger registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

var _ strip.Observer = (*Recorder)(nil)
