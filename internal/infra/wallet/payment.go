package wallet

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/schemas"
)

const (
	// ProofAmountDrops is the payment amount carried by a proof transaction.
	ProofAmountDrops = "1"
	// LedgerSequenceBuffer is how many ledgers a proof stays submittable.
	LedgerSequenceBuffer = 20
)

// ErrSelfPayment mirrors the ledger's temREDUNDANT rejection.
var ErrSelfPayment = errors.New("payment to self is rejected (temREDUNDANT); configure a distinct journal address")

// BuildProofPayment builds the memo-carrying payment that attests meta.
// An empty destination falls back to the account itself and is rejected.
// lastLedgerSequence is omitted when zero.
func BuildProofPayment(account, destination string, meta transparence.ProofMeta, lastLedgerSequence uint32) (transparence.RawTx, error) {
	if destination == "" {
		destination = account
	}
	if destination == account {
		return transparence.RawTx{}, ErrSelfPayment
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return transparence.RawTx{}, fmt.Errorf("failed to encode proof: %w", err)
	}

	return transparence.RawTx{
		TransactionType: schemas.TransactionTypePayment,
		Account:         account,
		Destination:     destination,
		Amount:          ProofAmountDrops,
		Memos: []transparence.Memo{{Memo: transparence.MemoFields{
			MemoType: transparence.StringToHex(schemas.MemoTypeV1),
			MemoData: transparence.StringToHex(string(data)),
		}}},
		LastLedgerSequence: lastLedgerSequence,
	}, nil
}
