// Package metrics records secret fetch outcomes as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/systmms/secretconf/pkg/secretfile"
)

// Collector implements secretfile.Observer.
type Collector struct {
	registry      *prometheus.Registry
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	buildTotal    *prometheus.CounterVec
}

var _ secretfile.Observer = (*Collector)(nil)

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretconf_secret_fetch_total",
				Help: "Total number of secret fetches by store and outcome",
			},
			[]string{"store", "outcome"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secretconf_secret_fetch_duration_seconds",
				Help:    "Duration of secret fetches in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"store"},
		),
		buildTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretconf_build_total",
				Help: "Total number of configuration builds by status",
			},
			[]string{"status"},
		),
	}
}

// ObserveFetch records one fetch.
func (c *Collector) ObserveFetch(store string, outcome secretfile.Outcome, elapsed time.Duration) {
	c.fetchTotal.WithLabelValues(store, string(outcome)).Inc()
	c.fetchDuration.WithLabelValues(store).Observe(elapsed.Seconds())
}

// ObserveBuild records the result of a configuration build.
func (c *Collector) ObserveBuild(err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.buildTotal.WithLabelValues(status).Inc()
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteText writes every metric in the Prometheus text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
