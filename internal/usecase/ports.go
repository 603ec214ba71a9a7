package usecase

import (
	"context"
	"io"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/geofilter"
	"github.com/totegamma/transparence/internal/domain"
)

// LedgerGateway fetches the raw evidence journal.
type LedgerGateway interface {
	FetchJournal(ctx context.Context) ([]transparence.RawTx, error)
}

// CountryGateway loads country boundaries.
type CountryGateway interface {
	Load(ctx context.Context) (*geofilter.CountryIndex, error)
}

// ContentStore uploads media to the content-addressed network.
type ContentStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (domain.ContentRef, error)
}

// Attestor anchors a proof payload on the ledger.
type Attestor interface {
	Attest(ctx context.Context, meta transparence.ProofMeta) (transparence.TxResult, string, error)
}

// EvidenceRepository persists locally created records.
type EvidenceRepository interface {
	Create(ctx context.Context, record domain.Record) error
	List(ctx context.Context) ([]domain.Record, error)
	Confirm(ctx context.Context, id, hash string) error
}

// Publisher fans out realtime events.
type Publisher interface {
	Publish(ctx context.Context, channel string, event transparence.Event) error
}

// Metrics receives feed and submission counters.
type Metrics interface {
	JournalFetched(status string)
	RecordsDecoded(n int)
	TxSkipped(reason string, n int)
	EvidenceSubmitted(status string)
	FilterRequested(mode string)
}

type nopMetrics struct{}

func (nopMetrics) JournalFetched(string) {}
func (nopMetrics) RecordsDecoded(int) {}
func (nopMetrics) TxSkipped(string, int) {}
func (nopMetrics) EvidenceSubmitted(string) {}
func (nopMetrics) FilterRequested(string) {}
