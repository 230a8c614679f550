// Package metrics counts what one run fetched, extracted and resolved.
//
// Counters live in a private Prometheus registry so that nothing leaks into
// the global default registry. A run ends by writing the registry to a
// node_exporter textfile when a metrics file is configured.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kebiao"

// Recorder collects the metrics of one run. It satisfies scraper.Recorder.
type Recorder struct {
	registry      *prometheus.Registry
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	sessions      prometheus.Counter
	resolutions   *prometheus.CounterVec
	events        prometheus.Gauge
	lastRun       prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_fetches_total",
			Help:      "Portal page fetches by page kind and outcome.",
		}, []string{"kind", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_fetch_duration_seconds",
			Help:      "Time spent fetching a portal page, retries included.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_extracted_total",
			Help:      "Class sessions extracted from week pages.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locations_resolved_total",
			Help:      "Session locations by the rule that decided them.",
		}, []string{"rule"}),
		events: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calendar_events",
			Help:      "Events in the generated calendar.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the calendar was last generated.",
		}),
	}

	r.registry.MustRegister(r.fetches, r.fetchDuration, r.sessions, r.resolutions, r.events, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch records one page fetch.
func (r *Recorder) ObserveFetch(kind, outcome string, d time.Duration) {
	r.fetches.WithLabelValues(kind, outcome).Inc()
	r.fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// AddSessions counts extracted sessions.
func (r *Recorder) AddSessions(n int) {
	r.sessions.Add(float64(n))
}

// ObserveResolution counts a location decided by rule.
func (r *Recorder) ObserveResolution(rule string) {
	r.resolutions.WithLabelValues(rule).Inc()
}

// SetEvents records the calendar size and stamps the run time.
func (r *Recorder) SetEvents(n int, at time.Time) {
	r.events.Set(float64(n))
	r.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes all metrics in the text exposition format. The file is
// replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
