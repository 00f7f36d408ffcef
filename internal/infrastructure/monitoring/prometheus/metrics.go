// Package prometheus exposes import-pipeline metrics.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chemlattice/molimport/internal/application/importer"
)

// Row outcome label values.
const (
	OutcomeSuccessful = "successful"
	OutcomeFailed     = "failed"
	OutcomeDuplicate  = "duplicate"
)

var importDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 300}

// ImportMetrics implements importer.Metrics on a private registry so tests
// never collide on duplicate registration.
type ImportMetrics struct {
	registry *prometheus.Registry

	importsTotal   prometheus.Counter
	activeImports  prometheus.Gauge
	rowsTotal      *prometheus.CounterVec
	importDuration prometheus.Histogram
	rowsPerImport  prometheus.Histogram
}

var _ importer.Metrics = (*ImportMetrics)(nil)

// NewImportMetrics builds and registers the import metric set, together with
// the standard Go runtime and process collectors.
func NewImportMetrics() *ImportMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ImportMetrics{
		registry: reg,
		importsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "molimport",
			Name:      "imports_total",
			Help:      "Total number of import runs started.",
		}),
		activeImports: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "molimport",
			Name:      "imports_active",
			Help:      "Number of import runs currently in flight.",
		}),
		rowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "molimport",
			Name:      "rows_total",
			Help:      "Processed rows by outcome.",
		}, []string{"outcome"}),
		importDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "molimport",
			Name:      "import_duration_seconds",
			Help:      "Wall-clock duration of import runs.",
			Buckets:   importDurationBuckets,
		}),
		rowsPerImport: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "molimport",
			Name:      "rows_per_import",
			Help:      "Row count distribution across import runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}

	reg.MustRegister(m.importsTotal, m.activeImports, m.rowsTotal, m.importDuration, m.rowsPerImport)
	return m
}

// ImportStarted records the start of an import run.
func (m *ImportMetrics) ImportStarted() {
	m.importsTotal.Inc()
	m.activeImports.Inc()
}

// RowValidated records one row outcome ("successful", "failed" or
// "duplicate").
func (m *ImportMetrics) RowValidated(outcome string) {
	m.rowsTotal.WithLabelValues(outcome).Inc()
}

// ImportFinished records the completed run.
func (m *ImportMetrics) ImportFinished(res *importer.ImportResult, elapsed time.Duration) {
	m.activeImports.Dec()
	m.importDuration.Observe(elapsed.Seconds())
	m.rowsPerImport.Observe(float64(res.TotalRows))
}

// Handler returns the exposition endpoint for this metric set.
func (m *ImportMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors.
func (m *ImportMetrics) Registry() *prometheus.Registry {
	return m.registry
}
