// Package metrics exposes Prometheus collectors for harvest cycles.
//
// Each Recorder registers its collectors on a registry of its own, created by New,
// so tests and multiple application instances never share the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/ports"
)

// Recorder turns cycle reports into counters and a duration histogram.
type Recorder struct {
	registry *prometheus.Registry

	cycles      *prometheus.CounterVec
	links       *prometheus.CounterVec
	definitions *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

var _ ports.CycleObserver = (*Recorder)(nil)

// New registers all collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_cycles_total",
				Help: "Harvest cycles by outcome.",
			},
			[]string{"outcome"},
		),
		links: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_links_total",
				Help: "Definition-page links processed by result status.",
			},
			[]string{"status"},
		),
		definitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_definitions_total",
				Help: "Extracted definitions by store outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "harvest_cycle_duration_seconds",
				Help: "Wall time of a harvest cycle.",
				// cycles run for minutes to hours
				Buckets: []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 7200},
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvest_last_success_timestamp_seconds",
				Help: "Unix time of the last cycle that finished without error.",
			},
		),
	}

	r.registry.MustRegister(r.cycles, r.links, r.definitions, r.duration, r.lastSuccess)
	return r
}

// ObserveCycle records one finished cycle.
func (r *Recorder) ObserveCycle(report domain.CycleReport, cycleErr error) {
	outcome := "success"
	if cycleErr != nil {
		outcome = "failure"
	}
	r.cycles.WithLabelValues(outcome).Inc()

	okLinks := report.Links - report.LinksFailed - report.LinksSkipped
	if okLinks < 0 {
		okLinks = 0
	}
	r.links.WithLabelValues("ok").Add(float64(okLinks))
	r.links.WithLabelValues("failed").Add(float64(report.LinksFailed))
	r.links.WithLabelValues("skipped").Add(float64(report.LinksSkipped))

	r.definitions.WithLabelValues(domain.OutcomeInserted.String()).Add(float64(report.Inserted))
	r.definitions.WithLabelValues(domain.OutcomeDuplicate.String()).Add(float64(report.Duplicates))
	r.definitions.WithLabelValues(domain.OutcomeInvalid.String()).Add(float64(report.Invalid))
	r.definitions.WithLabelValues(domain.OutcomeFaulted.String()).Add(float64(report.StorageFaults))

	r.duration.Observe(report.Duration().Seconds())
	if cycleErr == nil && !report.FinishedAt.IsZero() {
		r.lastSuccess.Set(float64(report.FinishedAt.Unix()))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
