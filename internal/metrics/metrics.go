// Package metrics exposes Prometheus instrumentation for the daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's instrument set backed by a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ImportedPrograms   prometheus.Counter
	ImportedRecordings prometheus.Counter
	Patches            *prometheus.CounterVec
	ValidationRuns     prometheus.Counter
	HealedRecordings   prometheus.Counter
	Jobs               *prometheus.CounterVec
	JobFailures        *prometheus.CounterVec
	JobDuration        prometheus.Histogram
}

// New builds the instrument set on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ImportedPrograms: factory.NewCounter(prometheus.CounterOpts{
			Name: "mytvlog_imported_programs_total",
			Help: "Programs created by bulk import commits.",
		}),
		ImportedRecordings: factory.NewCounter(prometheus.CounterOpts{
			Name: "mytvlog_imported_recordings_total",
			Help: "Recordings created by bulk import commits.",
		}),
		Patches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mytvlog_recording_patches_total",
			Help: "Applied recording lifecycle patches by rule.",
		}, []string{"rule"}),
		ValidationRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "mytvlog_validation_runs_total",
			Help: "File-path validation passes executed.",
		}),
		HealedRecordings: factory.NewCounter(prometheus.CounterOpts{
			Name: "mytvlog_healed_recordings_total",
			Help: "Recording rows repaired by the validation pass.",
		}),
		Jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mytvlog_background_jobs_total",
			Help: "Background file jobs executed by kind.",
		}, []string{"kind"}),
		JobFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mytvlog_background_job_failures_total",
			Help: "Background file jobs that failed by kind.",
		}, []string{"kind"}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mytvlog_background_job_duration_seconds",
			Help:    "Wall time of background file jobs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
