// Package metrics holds the Prometheus collectors published by the unitab
// service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service collectors. Handlers observe into it; the
// registry it was built with backs the /metrics endpoint.
//
// Create instances with [New].
type Metrics struct {
	extractions        *prometheus.CounterVec
	extractionDuration prometheus.Histogram
	extractionRows     prometheus.Counter
	warnings           *prometheus.CounterVec
	uploads            prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		extractions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "unitab_extractions_total",
			Help: "Extraction runs by outcome (ok or the fatal error kind).",
		}, []string{"outcome"}),
		extractionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "unitab_extraction_duration_seconds",
			Help:    "Wall-clock duration of successful extraction runs.",
			Buckets: prometheus.DefBuckets,
		}),
		extractionRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "unitab_extraction_rows_total",
			Help: "Canonical rows emitted by successful extraction runs.",
		}),
		warnings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "unitab_extraction_warnings_total",
			Help: "Non-fatal extraction warnings by kind.",
		}, []string{"kind"}),
		uploads: factory.NewCounter(prometheus.CounterOpts{
			Name: "unitab_uploads_total",
			Help: "CSV payloads bound into the upload registry.",
		}),
	}
}

// ExtractionSucceeded records one successful run.
func (m *Metrics) ExtractionSucceeded(rows int, elapsed time.Duration) {
	m.extractions.WithLabelValues("ok").Inc()
	m.extractionDuration.Observe(elapsed.Seconds())
	m.extractionRows.Add(float64(rows))
}

// ExtractionFailed records one failed run under its fatal error kind.
func (m *Metrics) ExtractionFailed(kind string) {
	m.extractions.WithLabelValues(kind).Inc()
}

// Warning records one non-fatal extraction warning.
func (m *Metrics) Warning(kind string) {
	m.warnings.WithLabelValues(kind).Inc()
}

// Upload records one payload binding.
func (m *Metrics) Upload() {
	m.uploads.Inc()
}
