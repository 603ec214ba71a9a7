package transparence

import (
	"encoding/json"
	"time"
)

// RawTx is a ledger transaction as returned by account_tx, reduced to the
// fields the journal cares about.
type RawTx struct {
	TransactionType    string `json:"TransactionType"`
	Account            string `json:"Account"`
	Destination        string `json:"Destination,omitempty"`
	Amount             any    `json:"Amount,omitempty"`
	Memos              []Memo `json:"Memos,omitempty"`
	Hash               string `json:"hash,omitempty"`
	Date               *int64 `json:"date,omitempty"`
	LastLedgerSequence uint32 `json:"LastLedgerSequence,omitempty"`
}

type Memo struct {
	Memo MemoFields `json:"Memo"`
}

// MemoFields holds hex-encoded memo attachments.
type MemoFields struct {
	MemoType   string `json:"MemoType,omitempty"`
	MemoData   string `json:"MemoData,omitempty"`
	MemoFormat string `json:"MemoFormat,omitempty"`
}

// AccountTxEntry is a single element of an account_tx result. API v1 nests the
// transaction under "tx", API v2 under "tx_json" with the hash alongside.
type AccountTxEntry struct {
	Tx        *RawTx          `json:"tx,omitempty"`
	TxJSON    *RawTx          `json:"tx_json,omitempty"`
	Hash      string          `json:"hash,omitempty"`
	Validated bool            `json:"validated"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

type AccountTxResult struct {
	Account      string           `json:"account"`
	Transactions []AccountTxEntry `json:"transactions"`
	Marker       json.RawMessage  `json:"marker,omitempty"`
	Limit        int              `json:"limit,omitempty"`
}

type txMeta struct {
	TransactionResult string `json:"TransactionResult"`
}

// Normalize returns the transaction of the entry with its hash filled in.
// Entries that are not validated or whose result is not tesSUCCESS are
// reported as not usable.
func (e AccountTxEntry) Normalize() (RawTx, bool) {
	var tx RawTx
	switch {
	case e.Tx != nil:
		tx = *e.Tx
	case e.TxJSON != nil:
		tx = *e.TxJSON
	default:
		return RawTx{}, false
	}
	if tx.Hash == "" {
		tx.Hash = e.Hash
	}

	if !e.Validated {
		return tx, false
	}

	if len(e.Meta) > 0 {
		var meta txMeta
		if err := json.Unmarshal(e.Meta, &meta); err == nil {
			if meta.TransactionResult != "" && meta.TransactionResult != "tesSUCCESS" {
				return tx, false
			}
		}
	}

	return tx, true
}

// ProofMeta is the JSON payload embedded in a TRANSPARENCE_V1 memo.
type ProofMeta struct {
	Version        int      `json:"version,omitempty"`
	CID            string   `json:"cid"`
	URL            string   `json:"url"`
	MediaType      string   `json:"mediaType,omitempty"`
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	LocationSource string   `json:"locationSource,omitempty"`
	CreatedAt      int64    `json:"createdAt,omitempty"`
}

// TxResult is what a wallet reports after signing and submitting.
type TxResult struct {
	Hash         string `json:"hash"`
	EngineResult string `json:"engineResult,omitempty"`
	Accepted     bool   `json:"accepted"`
}

type Event struct {
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type StatusEvent struct {
	Status  string `json:"status"` // connected, disconnected, error
	Wallet  string `json:"wallet"`
	Address string `json:"address,omitempty"`
	Error   string `json:"error,omitempty"`
}
