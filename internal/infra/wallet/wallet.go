package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/internal/domain"
)

var tracer = otel.Tracer("wallet")

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusError        = "error"
)

// Wallet is a signing backend.
type Wallet interface {
	Name() string
	Connect(ctx context.Context) (string, error)
	SignAndSubmit(ctx context.Context, tx transparence.RawTx) (transparence.TxResult, error)
}

// LedgerIndexer reports the current open ledger index.
type LedgerIndexer interface {
	LedgerIndex(ctx context.Context) (uint32, error)
}

// Manager selects one of several wallet adapters and attests proofs with it.
type Manager struct {
	mu          sync.RWMutex
	wallets     map[string]Wallet
	active      Wallet
	address     string
	listeners   map[int]func(transparence.StatusEvent)
	nextID      int
	ledger      LedgerIndexer
	destination string
}

// NewManager returns a manager sending proofs to destination. ledger may be
// nil, in which case proofs carry no LastLedgerSequence.
func NewManager(destination string, ledger LedgerIndexer, wallets ...Wallet) *Manager {
	m := &Manager{
		wallets:     make(map[string]Wallet, len(wallets)),
		listeners:   make(map[int]func(transparence.StatusEvent)),
		ledger:      ledger,
		destination: destination,
	}
	for _, w := range wallets {
		m.wallets[w.Name()] = w
	}
	return m
}

func (m *Manager) Register(w Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[w.Name()] = w
}

// OnStatusChange registers callback for status events and returns a function
// removing it.
func (m *Manager) OnStatusChange(callback func(transparence.StatusEvent)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = callback

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) emit(event transparence.StatusEvent) {
	m.mu.RLock()
	listeners := make([]func(transparence.StatusEvent), 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.RUnlock()

	for _, l := range listeners {
		l(event)
	}
}

// Connect activates the named wallet.
func (m *Manager) Connect(ctx context.Context, name string) (string, error) {
	m.mu.RLock()
	w, ok := m.wallets[name]
	m.mu.RUnlock()
	if !ok {
		return "", domain.NotFoundError{Resource: "wallet " + name}
	}

	address, err := w.Connect(ctx)
	if err != nil {
		m.emit(transparence.StatusEvent{Status: StatusError, Wallet: name, Error: err.Error()})
		return "", err
	}

	m.mu.Lock()
	m.active = w
	m.address = address
	m.mu.Unlock()

	slog.InfoContext(
		ctx, "wallet connected",
		slog.String("module", "wallet"),
		slog.String("wallet", name),
		slog.String("address", address),
	)
	m.emit(transparence.StatusEvent{Status: StatusConnected, Wallet: name, Address: address})
	return address, nil
}

func (m *Manager) Disconnect() {
	m.mu.Lock()
	w := m.active
	m.active = nil
	m.address = ""
	m.mu.Unlock()

	if w != nil {
		m.emit(transparence.StatusEvent{Status: StatusDisconnected, Wallet: w.Name()})
	}
}

// Address returns the connected account, or empty when disconnected.
func (m *Manager) Address() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.address
}

func (m *Manager) SignAndSubmit(ctx context.Context, tx transparence.RawTx) (transparence.TxResult, error) {
	m.mu.RLock()
	w := m.active
	m.mu.RUnlock()
	if w == nil {
		return transparence.TxResult{}, fmt.Errorf("wallet: %w", domain.ErrNotConfigured)
	}

	res, err := w.SignAndSubmit(ctx, tx)
	if err != nil {
		m.emit(transparence.StatusEvent{Status: StatusError, Wallet: w.Name(), Address: tx.Account, Error: err.Error()})
		return res, err
	}
	return res, nil
}

// Attest submits a proof payment for meta from the connected account and
// returns the submission result and the submitting address.
func (m *Manager) Attest(ctx context.Context, meta transparence.ProofMeta) (transparence.TxResult, string, error) {
	ctx, span := tracer.Start(ctx, "Wallet.Manager.Attest")
	defer span.End()

	account := m.Address()
	if account == "" {
		return transparence.TxResult{}, "", fmt.Errorf("wallet: %w", domain.ErrNotConfigured)
	}

	var lastLedgerSequence uint32
	if m.ledger != nil {
		current, err := m.ledger.LedgerIndex(ctx)
		if err != nil {
			slog.WarnContext(
				ctx, "could not fetch ledger index, continuing without LastLedgerSequence",
				slog.String("module", "wallet"),
				slog.String("error", err.Error()),
			)
		} else {
			lastLedgerSequence = current + LedgerSequenceBuffer
		}
	}

	tx, err := BuildProofPayment(account, m.destination, meta, lastLedgerSequence)
	if err != nil {
		return transparence.TxResult{}, account, err
	}

	res, err := m.SignAndSubmit(ctx, tx)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Wallet.Manager.Attest: submit failed"))
		return res, account, err
	}
	span.SetAttributes(attribute.String("hash", res.Hash))

	return res, account, nil
}
