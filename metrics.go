package main

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds the Prometheus collectors of the poll loop
type Metrics struct {
	PollsTotal            prometheus.Counter
	ReportedTotal         prometheus.Counter
	IgnoredTotal          prometheus.Counter
	DuplicateTotal        prometheus.Counter
	InvalidTimestampTotal prometheus.Counter
	SeenRegistrySize      prometheus.Gauge
}

// NewMetrics registers all collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PollsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "slowlog_polls_total",
			Help: "Total number of SLOWLOG GET polls completed",
		}),
		ReportedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "slowlog_entries_reported_total",
			Help: "Total number of newly observed slowlog entries reported",
		}),
		IgnoredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "slowlog_entries_ignored_total",
			Help: "Total number of fetched entries dropped by the ignore filter",
		}),
		DuplicateTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "slowlog_entries_duplicate_total",
			Help: "Total number of fetched entries that were already reported",
		}),
		InvalidTimestampTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "slowlog_entries_invalid_timestamp_total",
			Help: "Total number of fetched entries skipped for an invalid timestamp",
		}),
		SeenRegistrySize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "slowlog_seen_registry_size",
			Help: "Number of entry ids held by the seen registry",
		}),
	}
}

// ServeMetrics exposes reg on addr in the background.
func ServeMetrics(addr string, reg prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		Logger.WithFields(logrus.Fields{"addr": addr}).Info("Serving metrics")
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.WithError(err).Error("Metrics listener stopped")
		}
	}()
}
