package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/geofilter"
	"github.com/totegamma/transparence/internal/domain"
)

type mockLedger struct {
	mu    sync.Mutex
	txs   []transparence.RawTx
	err   error
	calls int
	block chan struct{}
}

func (m *mockLedger) FetchJournal(ctx context.Context) ([]transparence.RawTx, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.block != nil {
		<-m.block
	}
	return m.txs, m.err
}

type mockCountries struct {
	idx   *geofilter.CountryIndex
	err   error
	calls int
}

func (m *mockCountries) Load(ctx context.Context) (*geofilter.CountryIndex, error) {
	m.calls++
	return m.idx, m.err
}

type mockContent struct {
	uploaded string
	err      error
}

func (m *mockContent) Upload(ctx context.Context, filename, contentType string, body io.Reader) (domain.ContentRef, error) {
	if m.err != nil {
		return domain.ContentRef{}, m.err
	}
	b, _ := io.ReadAll(body)
	m.uploaded = string(b)
	return domain.ContentRef{CID: "bafy", URL: "https://g/ipfs/bafy"}, nil
}

type mockAttestor struct {
	meta transparence.ProofMeta
	hash string
	err  error
}

func (m *mockAttestor) Attest(ctx context.Context, meta transparence.ProofMeta) (transparence.TxResult, string, error) {
	m.meta = meta
	if m.err != nil {
		return transparence.TxResult{}, "", m.err
	}
	return transparence.TxResult{Hash: m.hash, Accepted: true}, "rSubmitter", nil
}

type mockEvidenceRepo struct {
	records   []domain.Record
	confirmed map[string]string
	err       error
}

func (m *mockEvidenceRepo) Create(ctx context.Context, record domain.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockEvidenceRepo) List(ctx context.Context) ([]domain.Record, error) {
	return m.records, m.err
}

func (m *mockEvidenceRepo) Confirm(ctx context.Context, id, hash string) error {
	for _, r := range m.records {
		if r.ID == id {
			if m.confirmed == nil {
				m.confirmed = map[string]string{}
			}
			m.confirmed[id] = hash
			return nil
		}
	}
	return domain.NotFoundError{Resource: "evidence"}
}

type mockPublisher struct {
	events []transparence.Event
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, event transparence.Event) error {
	m.events = append(m.events, event)
	return nil
}

var errBoom = errors.New("boom")
