package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "memkv"

// Command outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge
	RateLimited       prometheus.Counter
	Rebinds           prometheus.Counter

	MessagesPublished prometheus.Counter
	MessagesDelivered prometheus.Counter
}

// NewRegistry creates a registry with the server metrics and the Go
// runtime collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "total",
			Help:      "Commands processed, by verb and outcome",
		}, []string{"verb", "status"}),

		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "duration_seconds",
			Help:      "Command execution time, by family",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"family"}),

		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "accepted_total",
			Help:      "Connections accepted since start",
		}),

		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "active",
			Help:      "Connections currently being served",
		}),

		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "rate_limited_total",
			Help:      "Commands rejected by the per-connection rate limit",
		}),

		Rebinds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "rebinds_total",
			Help:      "Times the listener moved to a new address",
		}),

		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pubsub",
			Name:      "published_total",
			Help:      "Messages published by clients",
		}),

		MessagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pubsub",
			Name:      "delivered_total",
			Help:      "Message deliveries to subscriber mailboxes",
		}),
	}

	r.reg.MustRegister(
		r.CommandsTotal,
		r.CommandDuration,
		r.ConnectionsTotal,
		r.ConnectionsActive,
		r.RateLimited,
		r.Rebinds,
		r.MessagesPublished,
		r.MessagesDelivered,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// MustRegister adds extra collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	if r == nil {
		return
	}
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveCommand records one executed command.
func (r *Registry) ObserveCommand(verb, family string, failed bool, took time.Duration) {
	if r == nil {
		return
	}
	status := StatusOK
	if failed {
		status = StatusError
	}
	r.CommandsTotal.WithLabelValues(verb, status).Inc()
	r.CommandDuration.WithLabelValues(family).Observe(took.Seconds())
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records a finished connection.
func (r *Registry) ConnClosed() {
	if r == nil {
		return
	}
	r.ConnectionsActive.Dec()
}

// Published records a publish and the number of mailboxes reached.
func (r *Registry) Published(delivered int) {
	if r == nil {
		return
	}
	r.MessagesPublished.Inc()
	r.MessagesDelivered.Add(float64(delivered))
}

// RateLimitHit records a rejected command.
func (r *Registry) RateLimitHit() {
	if r == nil {
		return
	}
	r.RateLimited.Inc()
}

// Rebound records a listener move.
func (r *Registry) Rebound() {
	if r == nil {
		return
	}
	r.Rebinds.Inc()
}
