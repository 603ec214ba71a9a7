package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/geofilter"
	"github.com/totegamma/transparence/internal/domain"
	"github.com/totegamma/transparence/internal/ledger"
	"github.com/totegamma/transparence/internal/recordstore"
	"github.com/totegamma/transparence/schemas"
)

var tracer = otel.Tracer("usecase")

const (
	countryRetryInterval = time.Minute
	countryLoadTimeout   = time.Minute
	journalFetchTimeout  = 2 * time.Minute
)

// FeedUsecase serves the merged, filtered evidence feed.
type FeedUsecase struct {
	ledger    LedgerGateway
	countries CountryGateway
	local     EvidenceRepository
	publisher Publisher
	metrics   Metrics
	store     *recordstore.Store
	decoder   ledger.Decoder
	group     singleflight.Group

	mu          sync.Mutex
	index       *geofilter.CountryIndex
	loading     bool
	lastAttempt time.Time
}

func NewFeedUsecase(
	ledgerGateway LedgerGateway,
	countries CountryGateway,
	local EvidenceRepository,
	publisher Publisher,
	metrics Metrics,
	store *recordstore.Store,
) *FeedUsecase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &FeedUsecase{
		ledger:    ledgerGateway,
		countries: countries,
		local:     local,
		publisher: publisher,
		metrics:   metrics,
		store:     store,
	}
}

// Store exposes the state container shared with the evidence usecase.
func (uc *FeedUsecase) Store() *recordstore.Store {
	return uc.store
}

// Restore loads previously submitted local records into the store.
func (uc *FeedUsecase) Restore(ctx context.Context) error {
	if uc.local == nil {
		return nil
	}
	records, err := uc.local.List(ctx)
	if err != nil {
		return err
	}
	uc.store.AddLocal(records...)
	return nil
}

// Load fetches and decodes the journal and replaces the remote record set.
// Concurrent callers share a single fetch. On failure the remote set becomes
// empty and the error is returned.
//
// The fetch does not inherit the caller's cancellation: a caller that goes
// away gets ctx.Err() while the shared fetch runs to completion.
func (uc *FeedUsecase) Load(ctx context.Context) (int, error) {
	ch := uc.group.DoChan("journal", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalFetchTimeout)
		defer cancel()
		return uc.load(fetchCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Refresh drops any cached journal batch before loading.
func (uc *FeedUsecase) Refresh(ctx context.Context) (int, error) {
	if inv, ok := uc.ledger.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
	return uc.Load(ctx)
}

func (uc *FeedUsecase) load(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Feed.Usecase.Load")
	defer span.End()

	txs, err := uc.ledger.FetchJournal(ctx)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Feed.Usecase.Load: FetchJournal failed"))
		slog.WarnContext(
			ctx, "journal fetch failed; serving local records only",
			slog.String("module", "feed"),
			slog.String("error", err.Error()),
		)
		uc.metrics.JournalFetched("error")
		uc.store.ReplaceRemote(nil)
		return 0, err
	}

	records, report := uc.decoder.DecodeWithReport(txs)
	uc.store.ReplaceRemote(records)

	uc.metrics.JournalFetched("ok")
	uc.metrics.RecordsDecoded(report.Decoded)
	for reason, n := range report.Skipped {
		uc.metrics.TxSkipped(string(reason), n)
	}
	span.SetAttributes(attribute.Int("records", len(records)))

	slog.InfoContext(
		ctx, "journal loaded",
		slog.String("module", "feed"),
		slog.Int("transactions", len(txs)),
		slog.Int("records", len(records)),
	)

	if uc.publisher != nil {
		err := uc.publisher.Publish(ctx, schemas.ChannelEvidence, transparence.Event{
			Type:      schemas.EventJournalLoaded,
			Payload:   map[string]int{"records": len(records)},
			Timestamp: time.Now(),
		})
		if err != nil {
			slog.WarnContext(
				ctx, "failed to publish journal event",
				slog.String("module", "feed"),
				slog.String("error", err.Error()),
			)
		}
	}

	return len(records), nil
}

// Countries returns the country index, or nil while it is unavailable.
// The caller that starts a load waits for it; callers arriving while it is in
// flight get nil immediately. Failed loads are retried at most once per minute.
func (uc *FeedUsecase) Countries(ctx context.Context) *geofilter.CountryIndex {
	if uc.countries == nil {
		return nil
	}

	uc.mu.Lock()
	if uc.index != nil || uc.loading {
		idx := uc.index
		uc.mu.Unlock()
		return idx
	}
	if !uc.lastAttempt.IsZero() && time.Since(uc.lastAttempt) < countryRetryInterval {
		uc.mu.Unlock()
		return nil
	}
	uc.lastAttempt = time.Now()
	uc.loading = true
	uc.mu.Unlock()

	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), countryLoadTimeout)
	defer cancel()
	idx, err := uc.countries.Load(loadCtx)

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.loading = false

	if err != nil {
		slog.WarnContext(
			ctx, "country boundaries unavailable; falling back to name matching",
			slog.String("module", "feed"),
			slog.String("error", err.Error()),
		)
		return nil
	}
	uc.index = idx
	return idx
}

// List returns the records inside zone, newest first, with a fingerprint of
// the result.
func (uc *FeedUsecase) List(ctx context.Context, zone domain.ZoneSpec) ([]domain.Record, string, error) {
	_, span := tracer.Start(ctx, "Feed.Usecase.List")
	defer span.End()

	if err := zone.Validate(); err != nil {
		return nil, "", err
	}
	uc.metrics.FilterRequested(string(zone.Mode))

	var index *geofilter.CountryIndex
	if zone.Mode == domain.ZoneCountry && zone.SelectedCountry != nil {
		index = uc.Countries(ctx)
	}

	filtered := geofilter.Filter(uc.store.Snapshot(), zone, index)
	sorted := recordstore.SortNewestFirst(filtered)
	span.SetAttributes(attribute.Int("records", len(sorted)))

	return sorted, recordstore.Fingerprint(sorted), nil
}

func (uc *FeedUsecase) Get(ctx context.Context, id string) (domain.Record, error) {
	record, ok := uc.store.Get(id)
	if !ok {
		return domain.Record{}, domain.NotFoundError{Resource: "evidence " + id}
	}
	return record, nil
}

// CountryNames lists the names of the loaded boundaries.
func (uc *FeedUsecase) CountryNames(ctx context.Context) []string {
	return uc.Countries(ctx).Names()
}
