// Package metrics exposes Prometheus collectors for an archive run.
//
// An archive run is a batch job, so collectors live on a per-run registry
// that is written once to a node-exporter textfile when the run ends.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels used by Recorder methods.
const (
	ResultOK     = "ok"
	ResultAbsent = "absent"
	ResultError  = "error"
)

// Recorder holds the collectors of one run. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	itemsTotal     *prometheus.CounterVec
	fetchesTotal   *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	mediaTotal     *prometheus.CounterVec
	runDurationSec prometheus.Gauge
}

// New registers the run collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archiver_items_total",
				Help: "Total number of items seen by the scheduler, labeled by status.",
			},
			[]string{"status"},
		),
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archiver_fetches_total",
				Help: "Total number of sub-resource fetches, labeled by kind and result.",
			},
			[]string{"kind", "result"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archiver_retries_total",
				Help: "Total number of retried attempts, labeled by operation.",
			},
			[]string{"operation"},
		),
		mediaTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archiver_media_downloads_total",
				Help: "Total number of embedded media downloads, labeled by result.",
			},
			[]string{"result"},
		),
		runDurationSec: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "archiver_run_duration_seconds",
				Help: "Wall-clock duration of the last run.",
			},
		),
	}
	r.registry.MustRegister(r.itemsTotal, r.fetchesTotal, r.retriesTotal, r.mediaTotal, r.runDurationSec)
	return r
}

// Registry returns the run registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Item counts one item with its final status.
func (r *Recorder) Item(status string) {
	if r == nil {
		return
	}
	r.itemsTotal.WithLabelValues(status).Inc()
}

// Fetch counts one sub-resource fetch.
func (r *Recorder) Fetch(kind, result string) {
	if r == nil {
		return
	}
	r.fetchesTotal.WithLabelValues(kind, result).Inc()
}

// Retry counts one retried attempt.
func (r *Recorder) Retry(operation string) {
	if r == nil {
		return
	}
	r.retriesTotal.WithLabelValues(operation).Inc()
}

// Media counts one media download.
func (r *Recorder) Media(result string) {
	if r == nil {
		return
	}
	r.mediaTotal.WithLabelValues(result).Inc()
}

// RunDuration records the run duration in seconds.
func (r *Recorder) RunDuration(seconds float64) {
	if r == nil {
		return
	}
	r.runDurationSec.Set(seconds)
}

// WriteTextfile writes the registry to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
