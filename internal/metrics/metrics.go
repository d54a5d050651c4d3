// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/postings-dashboard/internal/fetcher"
	"github.com/sells-group/postings-dashboard/internal/model"
)

// Metrics counts archives, entries and notices. It satisfies dashboard.Recorder.
type Metrics struct {
	registry *prometheus.Registry
	archives *prometheus.CounterVec
	entries  *prometheus.CounterVec
	notices  *prometheus.CounterVec
}

// New creates Metrics on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postings_archives_total",
			Help: "Archives processed by format and outcome",
		}, []string{"kind", "outcome"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postings_entries_total",
			Help: "CSV entries processed by outcome",
		}, []string{"outcome"}),
		notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postings_notices_total",
			Help: "User-visible notices raised by kind",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.archives, m.entries, m.notices)
	return m
}

// ArchiveLoaded records one archive and whether it could be read.
func (m *Metrics) ArchiveLoaded(kind fetcher.ArchiveKind, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.archives.WithLabelValues(string(kind), outcome).Inc()
}

// EntryProcessed records the outcome of one CSV entry.
func (m *Metrics) EntryProcessed(outcome string) {
	m.entries.WithLabelValues(outcome).Inc()
}

// NoticeRaised records one notice.
func (m *Metrics) NoticeRaised(kind model.NoticeKind) {
	m.notices.WithLabelValues(string(kind)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
