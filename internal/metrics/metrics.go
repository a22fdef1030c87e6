// Package metrics exposes capture, decode and transmit counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/rf-sniffer/internal/logic"
)

// Metrics holds the sniffer's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	captures      prometheus.Counter
	decodes       *prometheus.CounterVec
	undecoded     prometheus.Counter
	duplicates    prometheus.Counter
	transmissions *prometheus.CounterVec
	pulses        prometheus.Histogram
	overflows     prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		captures: f.NewCounter(prometheus.CounterOpts{
			Name: "rf_captures_total",
			Help: "Captures analyzed",
		}),
		decodes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rf_decodes_total",
			Help: "Captures decoded, by protocol",
		}, []string{"protocol"}),
		undecoded: f.NewCounter(prometheus.CounterOpts{
			Name: "rf_undecoded_total",
			Help: "Captures with pulses that no protocol matched",
		}),
		duplicates: f.NewCounter(prometheus.CounterOpts{
			Name: "rf_duplicates_total",
			Help: "Decoded codes suppressed as repeats",
		}),
		transmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rf_transmissions_total",
			Help: "Replay transmissions, by result",
		}, []string{"result"}),
		pulses: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rf_capture_pulses",
			Help:    "Pulses per normalized capture",
			Buckets: prometheus.ExponentialBuckets(16, 2, 9),
		}),
		overflows: f.NewCounter(prometheus.CounterOpts{
			Name: "rf_buffer_overflows_total",
			Help: "Captures that filled the edge buffer",
		}),
	}
}

// ObserveResult records one analyzed capture. dup marks a suppressed repeat.
func (m *Metrics) ObserveResult(res logic.Result, dup bool) {
	if res.Outcome == logic.OutcomeNoSignal {
		return
	}
	m.captures.Inc()
	m.pulses.Observe(float64(len(res.Signal)))
	switch {
	case dup:
		m.duplicates.Inc()
	case res.Outcome == logic.OutcomeDecoded:
		m.decodes.WithLabelValues(res.Code.Protocol).Inc()
	default:
		m.undecoded.Inc()
	}
}

// ObserveOverflow counts a capture that filled the buffer.
func (m *Metrics) ObserveOverflow() {
	m.overflows.Inc()
}

// ObserveTransmit counts one transmission attempt.
func (m *Metrics) ObserveTransmit(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.transmissions.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
