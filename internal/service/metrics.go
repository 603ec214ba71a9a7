package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the feed collectors.
type Metrics struct {
	journalFetches *prometheus.CounterVec
	decoded        prometheus.Counter
	skipped        *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	filters        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		journalFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transparence",
			Name:      "journal_fetches_total",
			Help:      "Evidence journal fetches by outcome.",
		}, []string{"status"}),
		decoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transparence",
			Name:      "journal_records_decoded_total",
			Help:      "Records decoded from journal transactions.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transparence",
			Name:      "journal_tx_skipped_total",
			Help:      "Journal transactions that produced no record.",
		}, []string{"reason"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transparence",
			Name:      "evidence_submissions_total",
			Help:      "Evidence submissions by outcome.",
		}, []string{"status"}),
		filters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transparence",
			Name:      "feed_filter_requests_total",
			Help:      "Feed list requests by zone mode.",
		}, []string{"mode"}),
	}

	reg.MustRegister(m.journalFetches, m.decoded, m.skipped, m.submissions, m.filters)
	return m
}

func (m *Metrics) JournalFetched(status string) {
	m.journalFetches.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordsDecoded(n int) {
	m.decoded.Add(float64(n))
}

func (m *Metrics) TxSkipped(reason string, n int) {
	m.skipped.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) EvidenceSubmitted(status string) {
	m.submissions.WithLabelValues(status).Inc()
}

func (m *Metrics) FilterRequested(mode string) {
	m.filters.WithLabelValues(mode).Inc()
}
