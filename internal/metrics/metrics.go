// Package metrics holds the prometheus collectors shared by the server and the watch client.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campus_alerts"

type Metrics struct {
	registry *prometheus.Registry

	resolves      *prometheus.CounterVec
	visibleAlerts prometheus.Histogram
	created       *prometheus.CounterVec
	stateChanges  *prometheus.CounterVec
	expired       prometheus.Counter
	fetches       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_requests_total",
			Help:      "Alert visibility resolutions, by caller role class.",
		}, []string{"caller"}),
		visibleAlerts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "visible_alerts",
			Help:      "Number of alerts visible to a caller per resolution.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Alerts created, by severity.",
		}, []string{"severity"}),
		stateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_state_changes_total",
			Help:      "Alert activation toggles, by resulting state.",
		}, []string{"active"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_expired_total",
			Help:      "Alerts deactivated by the expiry sweeper.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_fetches_total",
			Help:      "Watch client alert fetches, by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(m.resolves, m.visibleAlerts, m.created, m.stateChanges, m.expired, m.fetches)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveResolve(admin bool, visible int) {
	if m == nil {
		return
	}
	caller := "user"
	if admin {
		caller = "admin"
	}
	m.resolves.WithLabelValues(caller).Inc()
	m.visibleAlerts.Observe(float64(visible))
}

func (m *Metrics) AlertCreated(severity string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(severity).Inc()
}

func (m *Metrics) AlertStateChanged(active bool) {
	if m == nil {
		return
	}
	label := "false"
	if active {
		label = "true"
	}
	m.stateChanges.WithLabelValues(label).Inc()
}

func (m *Metrics) AlertExpired() {
	if m == nil {
		return
	}
	m.expired.Inc()
}

// Fetch outcomes recorded by the watch client.
const (
	FetchOK     = "ok"
	FetchFailed = "failed"
	FetchStale  = "stale"
)

func (m *Metrics) ClientFetch(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}
