package service

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			for _, l := range m.GetLabel() {
				key += "/" + l.GetValue()
			}
			values[key] = m.GetCounter().GetValue()
		}
	}
	return values
}

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.JournalFetched("ok")
	m.JournalFetched("error")
	m.JournalFetched("ok")
	m.RecordsDecoded(3)
	m.TxSkipped("bad_json", 2)
	m.EvidenceSubmitted("ok")
	m.FilterRequested("RADIUS")

	values := gathered(t, reg)
	expected := map[string]float64{
		"transparence_journal_fetches_total/ok":          2,
		"transparence_journal_fetches_total/error":       1,
		"transparence_journal_records_decoded_total":     3,
		"transparence_journal_tx_skipped_total/bad_json": 2,
		"transparence_evidence_submissions_total/ok":     1,
		"transparence_feed_filter_requests_total/RADIUS": 1,
	}
	for key, want := range expected {
		if got := values[key]; got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
}
