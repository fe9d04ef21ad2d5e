// Package metrics bundles Prometheus collectors for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the run counters on a dedicated registry.
type Metrics struct {
	Registry     *prometheus.Registry
	RecordsTotal prometheus.Counter
	PagesTotal   prometheus.Counter
	FaultsTotal  *prometheus.CounterVec
}

// New constructs and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	records := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scraper_records_total",
		Help: "Product records appended to the result set.",
	})
	pages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scraper_pages_total",
		Help: "Category pages visited.",
	})
	faults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scraper_faults_total",
		Help: "Contained and fatal faults by kind.",
	}, []string{"kind"})

	registry.MustRegister(records, pages, faults)

	return &Metrics{
		Registry:     registry,
		RecordsTotal: records,
		PagesTotal:   pages,
		FaultsTotal:  faults,
	}
}

// IncRecords counts one extracted record. Safe on a nil receiver.
func (m *Metrics) IncRecords() {
	if m == nil {
		return
	}
	m.RecordsTotal.Inc()
}

// IncPages counts one visited page.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// IncFault counts one fault of the given kind.
func (m *Metrics) IncFault(kind string) {
	if m == nil {
		return
	}
	m.FaultsTotal.WithLabelValues(kind).Inc()
}
