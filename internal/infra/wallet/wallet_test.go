package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/internal/domain"
	"github.com/totegamma/transparence/schemas"
)

const (
	submitter = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	journal   = "rPT1Sjq2YGrBMTttX4GZHjKu9dyfzbpAYe"
)

type fakeNode struct {
	submitted transparence.RawTx
	secret    string
	err       error
}

func (f *fakeNode) Submit(ctx context.Context, tx transparence.RawTx, secret string) (transparence.TxResult, error) {
	f.submitted = tx
	f.secret = secret
	if f.err != nil {
		return transparence.TxResult{}, f.err
	}
	return transparence.TxResult{Hash: "HASH", EngineResult: "tesSUCCESS", Accepted: true}, nil
}

type fixedIndex struct {
	index uint32
	err   error
}

func (f fixedIndex) LedgerIndex(ctx context.Context) (uint32, error) {
	return f.index, f.err
}

func TestBuildProofPayment(t *testing.T) {
	lat, lon := 48.85, 2.35
	meta := transparence.ProofMeta{Version: schemas.ProofVersion, CID: "abc", URL: "https://x/abc", Lat: &lat, Lon: &lon}

	tx, err := BuildProofPayment(submitter, journal, meta, 120)
	require.NoError(t, err)

	assert.Equal(t, "Payment", tx.TransactionType)
	assert.Equal(t, "1", tx.Amount)
	assert.Equal(t, uint32(120), tx.LastLedgerSequence)
	require.Len(t, tx.Memos, 1)

	memoType, err := transparence.HexToString(tx.Memos[0].Memo.MemoType)
	require.NoError(t, err)
	assert.Equal(t, schemas.MemoTypeV1, memoType)

	data, err := transparence.HexToString(tx.Memos[0].Memo.MemoData)
	require.NoError(t, err)
	var decoded transparence.ProofMeta
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	assert.Equal(t, "abc", decoded.CID)
	assert.Equal(t, 48.85, *decoded.Lat)
}

func TestBuildProofPaymentRejectsSelf(t *testing.T) {
	_, err := BuildProofPayment(submitter, submitter, transparence.ProofMeta{}, 0)
	assert.ErrorIs(t, err, ErrSelfPayment)

	_, err = BuildProofPayment(submitter, "", transparence.ProofMeta{}, 0)
	assert.ErrorIs(t, err, ErrSelfPayment)
}

func TestManagerAttest(t *testing.T) {
	node := &fakeNode{}
	m := NewManager(journal, fixedIndex{index: 100}, NewRippledAdapter(node, submitter, "sSeed"))

	var events []transparence.StatusEvent
	unsubscribe := m.OnStatusChange(func(e transparence.StatusEvent) { events = append(events, e) })

	_, _, err := m.Attest(context.Background(), transparence.ProofMeta{CID: "abc"})
	assert.ErrorIs(t, err, domain.ErrNotConfigured, "no wallet connected yet")

	address, err := m.Connect(context.Background(), "rippled")
	require.NoError(t, err)
	assert.Equal(t, submitter, address)

	res, account, err := m.Attest(context.Background(), transparence.ProofMeta{CID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "HASH", res.Hash)
	assert.Equal(t, submitter, account)
	assert.Equal(t, uint32(120), node.submitted.LastLedgerSequence)
	assert.Equal(t, journal, node.submitted.Destination)
	assert.Equal(t, "sSeed", node.secret)

	m.Disconnect()
	unsubscribe()
	m.Disconnect()

	require.Len(t, events, 2)
	assert.Equal(t, StatusConnected, events[0].Status)
	assert.Equal(t, StatusDisconnected, events[1].Status)
	assert.Empty(t, m.Address())
}

func TestManagerAttestWithoutLedgerIndex(t *testing.T) {
	node := &fakeNode{}
	m := NewManager(journal, fixedIndex{err: errors.New("offline")}, NewRippledAdapter(node, submitter, "sSeed"))
	_, err := m.Connect(context.Background(), "rippled")
	require.NoError(t, err)

	_, _, err = m.Attest(context.Background(), transparence.ProofMeta{CID: "abc"})
	require.NoError(t, err)
	assert.Zero(t, node.submitted.LastLedgerSequence)
}

func TestManagerSubmitErrorEmitsStatus(t *testing.T) {
	node := &fakeNode{err: errors.New("tefPAST_SEQ")}
	m := NewManager(journal, nil, NewRippledAdapter(node, submitter, "sSeed"))
	_, err := m.Connect(context.Background(), "rippled")
	require.NoError(t, err)

	var last transparence.StatusEvent
	m.OnStatusChange(func(e transparence.StatusEvent) { last = e })

	_, _, err = m.Attest(context.Background(), transparence.ProofMeta{})
	require.Error(t, err)
	assert.Equal(t, StatusError, last.Status)
}

func TestManagerConnectFailures(t *testing.T) {
	m := NewManager(journal, nil, NewRippledAdapter(&fakeNode{}, submitter, ""))

	_, err := m.Connect(context.Background(), "gem")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var last transparence.StatusEvent
	m.OnStatusChange(func(e transparence.StatusEvent) { last = e })
	_, err = m.Connect(context.Background(), "rippled")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Equal(t, StatusError, last.Status)
}

func TestRippledAdapterRefusesForeignAccount(t *testing.T) {
	a := NewRippledAdapter(&fakeNode{}, submitter, "sSeed")
	_, err := a.SignAndSubmit(context.Background(), transparence.RawTx{Account: journal})
	assert.Error(t, err)
}

func TestManagerRegister(t *testing.T) {
	m := NewManager(journal, nil)

	_, err := m.Connect(context.Background(), "rippled")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	m.Register(NewRippledAdapter(&fakeNode{}, submitter, "sSeed"))
	address, err := m.Connect(context.Background(), "rippled")
	require.NoError(t, err)
	assert.Equal(t, submitter, address)
	assert.Equal(t, submitter, m.Address())
}
