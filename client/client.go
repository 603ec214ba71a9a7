package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"

	"github.com/totegamma/transparence"
)

const (
	defaultTimeout     = 10 * time.Second
	ledgerIndexTTL     = 3 * time.Second
	ledgerIndexKey     = "ledger_current"
	defaultUserAgent   = "transparence/1.0"
	maxIgnoredMessages = 64
)

// Client talks to a ledger node through its JSON API. WebSocket endpoints
// (ws://, wss://) get one connection per request; HTTP endpoints use
// JSON-RPC.
type Client struct {
	client    *http.Client
	dialer    *websocket.Dialer
	cache     *cache.Cache
	userAgent string
	endpoint  string
	timeout   time.Duration
	seq       atomic.Uint64
}

func New(endpoint string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		dialer:    &websocket.Dialer{HandshakeTimeout: defaultTimeout},
		cache:     cache.New(ledgerIndexTTL, time.Minute),
		userAgent: defaultUserAgent,
		endpoint:  endpoint,
		timeout:   defaultTimeout,
	}
	httpClient.Transport = c

	slog.Info(
		"ledger client initialized",
		slog.String("module", "client"),
		slog.String("endpoint", endpoint),
	)
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// RPCError is an error reported by the node.
type RPCError struct {
	Code    string `json:"error"`
	Message string `json:"error_message"`
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return "ledger rpc error: " + e.Code
	}
	return fmt.Sprintf("ledger rpc error: %s: %s", e.Code, e.Message)
}

type wsResponse struct {
	ID     uint64          `json:"id"`
	Type   string          `json:"type"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
	RPCError
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
}

type rpcStatus struct {
	Status string `json:"status"`
	RPCError
}

// Request sends command with params and decodes the result into result.
func (c *Client) Request(ctx context.Context, command string, params map[string]any, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var raw json.RawMessage
	var err error
	if strings.HasPrefix(c.endpoint, "ws://") || strings.HasPrefix(c.endpoint, "wss://") {
		raw, err = c.requestWebSocket(ctx, command, params)
	} else {
		raw, err = c.requestHTTP(ctx, command, params)
	}
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", command, err)
	}
	return nil
}

func (c *Client) requestWebSocket(ctx context.Context, command string, params map[string]any) (json.RawMessage, error) {
	header := http.Header{}
	header.Set("User-Agent", c.userAgent)

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	id := c.seq.Add(1)
	req := make(map[string]any, len(params)+2)
	for k, v := range params {
		req[k] = v
	}
	req["id"] = id
	req["command"] = command

	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", command, err)
	}

	for i := 0; i < maxIgnoredMessages; i++ {
		var resp wsResponse
		if err := conn.ReadJSON(&resp); err != nil {
			return nil, fmt.Errorf("failed to read %s response: %w", command, err)
		}
		if resp.Type != "response" || resp.ID != id {
			continue
		}
		if resp.Status != "success" {
			e := resp.RPCError
			return nil, &e
		}
		return resp.Result, nil
	}

	return nil, fmt.Errorf("no response to %s", command)
}

func (c *Client) requestHTTP(ctx context.Context, command string, params map[string]any) (json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(map[string]any{
		"method": command,
		"params": []any{params},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var status rpcStatus
	if err := json.Unmarshal(envelope.Result, &status); err != nil {
		return nil, fmt.Errorf("failed to decode response status: %w", err)
	}
	if status.Status != "success" {
		e := status.RPCError
		return nil, &e
	}

	return envelope.Result, nil
}

// AccountTx returns one page of the account's validated history, oldest
// ledgers included. Pass the previous page's marker to continue.
func (c *Client) AccountTx(ctx context.Context, account string, limit int, marker json.RawMessage) (transparence.AccountTxResult, error) {
	params := map[string]any{
		"account":          account,
		"ledger_index_min": -1,
		"ledger_index_max": -1,
		"limit":            limit,
	}
	if len(marker) > 0 && string(marker) != "null" {
		params["marker"] = marker
	}

	var result transparence.AccountTxResult
	if err := c.Request(ctx, "account_tx", params, &result); err != nil {
		return transparence.AccountTxResult{}, err
	}
	return result, nil
}

// LedgerIndex returns the current open ledger index. The value is cached for
// a few seconds.
func (c *Client) LedgerIndex(ctx context.Context) (uint32, error) {
	if x, found := c.cache.Get(ledgerIndexKey); found {
		return x.(uint32), nil
	}

	var result struct {
		LedgerCurrentIndex uint32 `json:"ledger_current_index"`
	}
	if err := c.Request(ctx, "ledger_current", nil, &result); err != nil {
		return 0, err
	}

	c.cache.Set(ledgerIndexKey, result.LedgerCurrentIndex, cache.DefaultExpiration)
	return result.LedgerCurrentIndex, nil
}

type submitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultMessage string `json:"engine_result_message"`
	Accepted            *bool  `json:"accepted"`
	TxJSON              struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

// Submit signs tx with secret on the node and submits it.
func (c *Client) Submit(ctx context.Context, tx transparence.RawTx, secret string) (transparence.TxResult, error) {
	var result submitResult
	err := c.Request(ctx, "submit", map[string]any{
		"tx_json": tx,
		"secret":  secret,
	}, &result)
	if err != nil {
		return transparence.TxResult{}, err
	}

	accepted := strings.HasPrefix(result.EngineResult, "tes") || strings.HasPrefix(result.EngineResult, "ter")
	if result.Accepted != nil {
		accepted = *result.Accepted
	}

	res := transparence.TxResult{
		Hash:         result.TxJSON.Hash,
		EngineResult: result.EngineResult,
		Accepted:     accepted,
	}
	if !accepted {
		return res, fmt.Errorf("transaction rejected: %s %s", result.EngineResult, result.EngineResultMessage)
	}
	return res, nil
}
