package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/totegamma/transparence"
)

type fakeNode struct {
	calls atomic.Int32
	reply func(command string, req map[string]any) map[string]any
}

func (f *fakeNode) ServeWS(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var req map[string]any
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		f.calls.Add(1)

		// unrelated stream message first
		conn.WriteJSON(map[string]any{"type": "ledgerClosed", "ledger_index": 1})

		command, _ := req["command"].(string)
		resp := map[string]any{"id": req["id"], "type": "response"}
		for k, v := range f.reply(command, req) {
			resp[k] = v
		}
		conn.WriteJSON(resp)
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestAccountTxWebSocket(t *testing.T) {
	node := &fakeNode{reply: func(command string, req map[string]any) map[string]any {
		if command != "account_tx" {
			t.Errorf("unexpected command %s", command)
		}
		if req["account"] != "rJournal" || req["limit"] != float64(200) {
			t.Errorf("unexpected params %v", req)
		}
		return map[string]any{
			"status": "success",
			"result": map[string]any{
				"account": "rJournal",
				"transactions": []any{
					map[string]any{"tx": map[string]any{"TransactionType": "Payment", "hash": "H1"}, "validated": true},
				},
			},
		}
	}}
	srv := node.ServeWS(t)
	defer srv.Close()

	c := New(wsURL(srv))
	res, err := c.AccountTx(context.Background(), "rJournal", 200, nil)
	if err != nil {
		t.Fatalf("AccountTx: %v", err)
	}
	if len(res.Transactions) != 1 || res.Transactions[0].Tx.Hash != "H1" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRequestWebSocketError(t *testing.T) {
	node := &fakeNode{reply: func(string, map[string]any) map[string]any {
		return map[string]any{"status": "error", "error": "actNotFound", "error_message": "Account not found."}
	}}
	srv := node.ServeWS(t)
	defer srv.Close()

	_, err := New(wsURL(srv)).AccountTx(context.Background(), "rMissing", 10, nil)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != "actNotFound" {
		t.Fatalf("expected actNotFound, got %v", err)
	}
}

func TestLedgerIndexCached(t *testing.T) {
	node := &fakeNode{reply: func(string, map[string]any) map[string]any {
		return map[string]any{"status": "success", "result": map[string]any{"ledger_current_index": 1000}}
	}}
	srv := node.ServeWS(t)
	defer srv.Close()

	c := New(wsURL(srv))
	for i := 0; i < 3; i++ {
		idx, err := c.LedgerIndex(context.Background())
		if err != nil {
			t.Fatalf("LedgerIndex: %v", err)
		}
		if idx != 1000 {
			t.Fatalf("unexpected index %d", idx)
		}
	}
	if node.calls.Load() != 1 {
		t.Fatalf("expected a single node call, got %d", node.calls.Load())
	}
}

func TestSubmitJSONRPC(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Method string           `json:"method"`
			Params []map[string]any `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if body.Method != "submit" || body.Params[0]["secret"] != "sEd" {
			t.Errorf("unexpected request %+v", body)
		}
		if r.Header.Get("User-Agent") != defaultUserAgent {
			t.Errorf("missing user agent")
		}
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{
			"status":        "success",
			"engine_result": "tesSUCCESS",
			"accepted":      true,
			"tx_json":       map[string]any{"hash": "ABC"},
		}})
	}))
	defer srv.Close()

	res, err := New(srv.URL).Submit(context.Background(), transparence.RawTx{TransactionType: "Payment"}, "sEd")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Hash != "ABC" || !res.Accepted || res.EngineResult != "tesSUCCESS" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{
			"status":                "success",
			"engine_result":         "temREDUNDANT",
			"engine_result_message": "Sends same currency to self.",
			"tx_json":               map[string]any{"hash": "ABC"},
		}})
	}))
	defer srv.Close()

	res, err := New(srv.URL).Submit(context.Background(), transparence.RawTx{}, "s")
	if err == nil || res.Accepted {
		t.Fatalf("expected rejection, got %+v %v", res, err)
	}
}
