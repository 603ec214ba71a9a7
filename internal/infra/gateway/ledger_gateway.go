package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/transparence"
)

var tracer = otel.Tracer("gateway")

// JournalPageSize is the account_tx page size.
const JournalPageSize = 200

// AccountTxClient is the subset of the ledger client the journal needs.
type AccountTxClient interface {
	AccountTx(ctx context.Context, account string, limit int, marker json.RawMessage) (transparence.AccountTxResult, error)
}

type LedgerGateway struct {
	client   AccountTxClient
	mc       *memcache.Client
	account  string
	maxPages int
	ttl      int32
}

// NewLedgerGateway returns a gateway reading the journal of account. mc may
// be nil to disable caching.
func NewLedgerGateway(client AccountTxClient, mc *memcache.Client, account string, maxPages int, ttlSeconds int32) *LedgerGateway {
	if maxPages <= 0 {
		maxPages = 1
	}
	return &LedgerGateway{
		client:   client,
		mc:       mc,
		account:  account,
		maxPages: maxPages,
		ttl:      ttlSeconds,
	}
}

func (g *LedgerGateway) cacheKey() string {
	return "transparence:journal:" + g.account
}

// FetchJournal returns the validated, successful transactions of the journal
// account. Without a configured account it returns no transactions.
func (g *LedgerGateway) FetchJournal(ctx context.Context) ([]transparence.RawTx, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Ledger.FetchJournal", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if g.account == "" {
		slog.WarnContext(
			ctx, "no journal address configured; skipping ledger fetch",
			slog.String("module", "ledger"),
		)
		return []transparence.RawTx{}, nil
	}
	span.SetAttributes(attribute.String("account", g.account))

	if g.mc != nil {
		item, err := g.mc.Get(g.cacheKey())
		if err == nil {
			var cached []transparence.RawTx
			if err := json.Unmarshal(item.Value, &cached); err == nil {
				span.SetAttributes(attribute.Bool("cached", true))
				return cached, nil
			}
		} else if !errors.Is(err, memcache.ErrCacheMiss) {
			slog.WarnContext(
				ctx, "journal cache unavailable",
				slog.String("module", "ledger"),
				slog.String("error", err.Error()),
			)
		}
	}

	txs := []transparence.RawTx{}
	var marker json.RawMessage
	for page := 0; page < g.maxPages; page++ {
		res, err := g.client.AccountTx(ctx, g.account, JournalPageSize, marker)
		if err != nil {
			span.RecordError(errors.Wrap(err, "Gateway.Ledger.FetchJournal: account_tx failed"))
			return nil, err
		}

		for _, entry := range res.Transactions {
			tx, ok := entry.Normalize()
			if !ok {
				continue
			}
			txs = append(txs, tx)
		}

		if len(res.Marker) == 0 || string(res.Marker) == "null" {
			break
		}
		marker = res.Marker
	}
	span.SetAttributes(attribute.Int("transactions", len(txs)))

	if g.mc != nil {
		value, err := json.Marshal(txs)
		if err == nil {
			err = g.mc.Set(&memcache.Item{Key: g.cacheKey(), Value: value, Expiration: g.ttl})
		}
		if err != nil {
			slog.WarnContext(
				ctx, "failed to cache journal",
				slog.String("module", "ledger"),
				slog.String("error", err.Error()),
			)
		}
	}

	return txs, nil
}

// Invalidate drops the cached journal batch.
func (g *LedgerGateway) Invalidate() {
	if g.mc == nil || g.account == "" {
		return
	}
	err := g.mc.Delete(g.cacheKey())
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		slog.Warn(
			"failed to invalidate journal cache",
			slog.String("module", "ledger"),
			slog.String("error", err.Error()),
		)
	}
}
