package wallet

import (
	"context"
	"fmt"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/internal/domain"
)

// Submitter signs and submits a transaction on a node holding no key of its
// own.
type Submitter interface {
	Submit(ctx context.Context, tx transparence.RawTx, secret string) (transparence.TxResult, error)
}

// RippledAdapter signs through a trusted rippled node with a configured seed.
type RippledAdapter struct {
	node    Submitter
	account string
	seed    string
}

func NewRippledAdapter(node Submitter, account, seed string) *RippledAdapter {
	return &RippledAdapter{node: node, account: account, seed: seed}
}

func (a *RippledAdapter) Name() string {
	return "rippled"
}

func (a *RippledAdapter) Connect(ctx context.Context) (string, error) {
	if a.seed == "" || a.account == "" {
		return "", fmt.Errorf("rippled wallet: %w", domain.ErrNotConfigured)
	}
	if !transparence.IsClassicAddress(a.account) {
		return "", fmt.Errorf("rippled wallet: invalid account %q", a.account)
	}
	return a.account, nil
}

func (a *RippledAdapter) SignAndSubmit(ctx context.Context, tx transparence.RawTx) (transparence.TxResult, error) {
	if tx.Account != a.account {
		return transparence.TxResult{}, fmt.Errorf("rippled wallet: cannot sign for %s", tx.Account)
	}
	return a.node.Submit(ctx, tx, a.seed)
}
