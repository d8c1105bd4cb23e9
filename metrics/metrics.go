// Package metrics exposes lock events as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/soulteary/eqlock/lock"
)

// DefaultNamespace is the metric namespace used when none is given.
const DefaultNamespace = "eqlock"

// Observer records lock events as Prometheus metrics. It implements both
// lock.Observer and prometheus.Collector.
type Observer struct {
	events   *prometheus.CounterVec
	held     *prometheus.GaugeVec
	wait     *prometheus.HistogramVec
	holdTime *prometheus.HistogramVec
}

var (
	_ lock.Observer        = (*Observer)(nil)
	_ prometheus.Collector = (*Observer)(nil)
)

// NewObserver creates a new metrics observer under the given namespace
func NewObserver(namespace string) *Observer {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Observer{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of lock events by kind",
		}, []string{"lock", "event"}),
		held: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "held",
			Help:      "Current number of held tickets",
		}, []string{"lock"}),
		wait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a ticket, for acquisitions that had to wait",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"lock"}),
		holdTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hold_seconds",
			Help:      "Time a ticket was held before release",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"lock"}),
	}
}

// Observe implements lock.Observer.
func (o *Observer) Observe(_ context.Context, e lock.Event) {
	o.events.WithLabelValues(e.Lock, string(e.Kind)).Inc()

	switch e.Kind {
	case lock.EventAcquired:
		o.held.WithLabelValues(e.Lock).Inc()
		if e.Waited > 0 {
			o.wait.WithLabelValues(e.Lock).Observe(e.Waited.Seconds())
		}
	case lock.EventReleased:
		o.held.WithLabelValues(e.Lock).Dec()
		o.holdTime.WithLabelValues(e.Lock).Observe(nonNegative(e.Held).Seconds())
	}
}

// Describe implements prometheus.Collector.
func (o *Observer) Describe(ch chan<- *prometheus.Desc) {
	o.events.Describe(ch)
	o.held.Describe(ch)
	o.wait.Describe(ch)
	o.holdTime.Describe(ch)
}

// Collect implements prometheus.Collector.
func (o *Observer) Collect(ch chan<- prometheus.Metric) {
	o.events.Collect(ch)
	o.held.Collect(ch)
	o.wait.Collect(ch)
	o.holdTime.Collect(ch)
}

// Register registers the observer's metrics on the provided registry.
func (o *Observer) Register(reg prometheus.Registerer) error {
	return reg.Register(o)
}

// MustRegister registers the observer's metrics and panics on failure.
func (o *Observer) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(o)
}

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
