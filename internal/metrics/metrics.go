// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exports handle lifecycle and queue depth to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"code.hybscloud.com/suspend"
)

const subsystem = "suspend"

// Metrics implements suspend.Tracker.
type Metrics struct {
	suspended        prometheus.Counter
	pending          prometheus.Gauge
	resolved         *prometheus.CounterVec
	resolveDuration  *prometheus.HistogramVec
	observerFailures prometheus.Counter
	reg              prometheus.Registerer
}

var _ suspend.Tracker = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		suspended: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "suspended_total",
			Help:      "Count of handles created in the suspended state.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "pending_handles",
			Help:      "Handles that have not reached a terminal state.",
		}),
		resolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "resolved_total",
			Help:      "Count of handles that reached a terminal state, by state.",
		}, []string{"state"}),
		resolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "resolve_duration_seconds",
			Help:      "Time from suspension to finalization, by terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"state"}),
		observerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "observer_failures_total",
			Help:      "Count of observers or finalizers that panicked during notification.",
		}),
		reg: reg,
	}
	reg.MustRegister(m.suspended, m.pending, m.resolved, m.resolveDuration, m.observerFailures)
	return m
}

// Suspended implements suspend.Tracker.
func (m *Metrics) Suspended(suspend.Serial) {
	m.suspended.Inc()
	m.pending.Inc()
}

// Resolved implements suspend.Tracker.
func (m *Metrics) Resolved(_ suspend.Serial, st suspend.State, elapsed time.Duration) {
	m.pending.Dec()
	m.resolved.WithLabelValues(st.String()).Inc()
	m.resolveDuration.WithLabelValues(st.String()).Observe(elapsed.Seconds())
}

// ObserverFailed implements suspend.Tracker.
func (m *Metrics) ObserverFailed(suspend.Serial) {
	m.observerFailures.Inc()
}

// ObserveQueue exports the current length and capacity of a named queue.
func (m *Metrics) ObserveQueue(name string, length, capacity func() int) {
	labels := prometheus.Labels{"queue": name}
	m.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Subsystem:   subsystem,
			Name:        "queue_length",
			Help:        "Items buffered in a bounded channel.",
			ConstLabels: labels,
		}, func() float64 { return float64(length()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Subsystem:   subsystem,
			Name:        "queue_capacity",
			Help:        "Fixed capacity of a bounded channel.",
			ConstLabels: labels,
		}, func() float64 { return float64(capacity()) }),
	)
}
