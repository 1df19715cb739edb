// Package metrics exposes Prometheus collectors for harvest runs.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ObserveOutcome.
const (
	OutcomeWritten   = "written"
	OutcomePreserved = "preserved"
	OutcomeFailed    = "failed"
)

var (
	registry *prometheus.Registry

	harvestRequestsTotal    *prometheus.CounterVec
	harvestItems            *prometheus.GaugeVec
	harvestOutcomesTotal    *prometheus.CounterVec
	harvestRunDuration      *prometheus.HistogramVec
	harvestLastWriteSeconds *prometheus.GaugeVec
	disclosureClicksTotal   prometheus.Counter
	politenessDelaySeconds  prometheus.Histogram

	once sync.Once
)

// Init initializes the collectors on a private registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		factory := promauto.With(registry)

		harvestRequestsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubharvest_requests_total",
				Help: "Remote requests issued, labeled by source and kind.",
			},
			[]string{"source", "kind"},
		)

		harvestItems = factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pubharvest_items",
				Help: "Number of records produced by the most recent harvest, labeled by source.",
			},
			[]string{"source"},
		)

		harvestOutcomesTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubharvest_outcomes_total",
				Help: "Harvest outcomes, labeled by source, outcome and reason.",
			},
			[]string{"source", "outcome", "reason"},
		)

		harvestRunDuration = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pubharvest_run_duration_seconds",
				Help:    "Wall time of one harvest run, labeled by source.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"source"},
		)

		harvestLastWriteSeconds = factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pubharvest_last_write_timestamp_seconds",
				Help: "Unix time of the last snapshot write, labeled by source.",
			},
			[]string{"source"},
		)

		disclosureClicksTotal = factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pubharvest_disclosure_clicks_total",
				Help: "Clicks on the profile's show-more control.",
			},
		)

		politenessDelaySeconds = factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pubharvest_politeness_delay_seconds",
				Help:    "Time spent waiting between API page requests.",
				Buckets: []float64{0.05, 0.1, 0.3, 0.5, 1, 2},
			},
		)
	})
}

// Registry returns the registry holding every harvest collector.
func Registry() *prometheus.Registry {
	Init()
	return registry
}

// ObserveRequest counts one remote request.
func ObserveRequest(source, kind string) {
	Init()
	harvestRequestsTotal.WithLabelValues(source, kind).Inc()
}

// ObserveItems records how many records a harvest produced.
func ObserveItems(source string, n int) {
	Init()
	harvestItems.WithLabelValues(source).Set(float64(n))
}

// ObserveOutcome counts a run's final outcome.
func ObserveOutcome(source, outcome, reason string) {
	Init()
	harvestOutcomesTotal.WithLabelValues(source, outcome, reason).Inc()
	if outcome == OutcomeWritten {
		harvestLastWriteSeconds.WithLabelValues(source).SetToCurrentTime()
	}
}

// ObserveRun records the wall time of a run.
func ObserveRun(source string, d time.Duration) {
	Init()
	harvestRunDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveDisclosureClick counts one show-more click.
func ObserveDisclosureClick() {
	Init()
	disclosureClicksTotal.Inc()
}

// ObservePolitenessDelay records a wait between API pages.
func ObservePolitenessDelay(d time.Duration) {
	Init()
	politenessDelaySeconds.Observe(d.Seconds())
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry()); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
