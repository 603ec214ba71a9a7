package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/internal/domain"
	"github.com/totegamma/transparence/schemas"
)

// SubmitInput is a validated upload request.
type SubmitInput struct {
	Filename       string
	ContentType    string
	Body           io.Reader
	Title          string
	Description    string
	Tags           []string
	Lat            float64
	Lng            float64
	LocationSource domain.LocationSource
}

// EvidenceUsecase uploads media, attests it and records it locally.
type EvidenceUsecase struct {
	content   ContentStore
	attestor  Attestor
	repo      EvidenceRepository
	publisher Publisher
	metrics   Metrics
	feed      *FeedUsecase
	now       func() time.Time
}

func NewEvidenceUsecase(
	content ContentStore,
	attestor Attestor,
	repo EvidenceRepository,
	publisher Publisher,
	metrics Metrics,
	feed *FeedUsecase,
) *EvidenceUsecase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &EvidenceUsecase{
		content:   content,
		attestor:  attestor,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		feed:      feed,
		now:       time.Now,
	}
}

func (uc *EvidenceUsecase) Submit(ctx context.Context, input SubmitInput) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "Evidence.Usecase.Submit")
	defer span.End()

	record, err := uc.submit(ctx, input)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Evidence.Usecase.Submit"))
		uc.metrics.EvidenceSubmitted("error")
		return domain.Record{}, err
	}
	uc.metrics.EvidenceSubmitted("ok")
	return record, nil
}

func (uc *EvidenceUsecase) submit(ctx context.Context, input SubmitInput) (domain.Record, error) {
	if err := domain.ValidatePosition(input.Lat, input.Lng); err != nil {
		return domain.Record{}, err
	}
	if input.Body == nil {
		return domain.Record{}, fmt.Errorf("%w: missing file", domain.ErrMalformed)
	}

	kind := domain.ClassifyMedia(input.ContentType)
	source := input.LocationSource
	if source == "" {
		source = domain.LocationManual
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	ref, err := uc.content.Upload(ctx, input.Filename, input.ContentType, input.Body)
	if err != nil {
		return domain.Record{}, fmt.Errorf("upload failed: %w", err)
	}

	createdAt := uc.now().UnixMilli()
	lat, lng := input.Lat, input.Lng
	meta := transparence.ProofMeta{
		Version:        schemas.ProofVersion,
		CID:            ref.CID,
		URL:            ref.URL,
		MediaType:      strings.ToLower(string(kind)),
		Lat:            &lat,
		Lon:            &lng,
		Title:          input.Title,
		Description:    input.Description,
		Tags:           tags,
		LocationSource: string(source),
		CreatedAt:      createdAt,
	}

	res, submitter, err := uc.attestor.Attest(ctx, meta)
	if err != nil {
		return domain.Record{}, fmt.Errorf("attestation failed: %w", err)
	}

	token, err := uuid.NewV7()
	if err != nil {
		return domain.Record{}, err
	}

	record := domain.Record{
		ID:               token.String(),
		MediaKind:        kind,
		Lat:              lat,
		Lng:              lng,
		LocationSource:   source,
		Title:            input.Title,
		Description:      input.Description,
		Tags:             tags,
		Content:          ref,
		ChainRef:         domain.PendingChainRef,
		SubmitterAddress: submitter,
		CreatedAt:        createdAt,
	}
	record.Confirm(res.Hash)

	if uc.feed != nil {
		if country, ok := uc.feed.Countries(ctx).Locate(record.Position()); ok {
			record.Country = country
		}
	}

	if err := uc.repo.Create(ctx, record); err != nil {
		return domain.Record{}, fmt.Errorf("failed to store evidence: %w", err)
	}
	if uc.feed != nil {
		uc.feed.Store().AddLocal(record)
	}

	slog.InfoContext(
		ctx, "evidence submitted",
		slog.String("module", "evidence"),
		slog.String("id", record.ID),
		slog.String("cid", ref.CID),
		slog.Bool("verified", record.Verified),
	)

	if uc.publisher != nil {
		err := uc.publisher.Publish(ctx, schemas.ChannelEvidence, transparence.Event{
			Type:      schemas.EventEvidenceCreated,
			Payload:   record,
			Timestamp: uc.now(),
		})
		if err != nil {
			slog.WarnContext(
				ctx, "failed to publish evidence event",
				slog.String("module", "evidence"),
				slog.String("error", err.Error()),
			)
		}
	}

	return record, nil
}

// Confirm marks a pending local record as attested by hash.
func (uc *EvidenceUsecase) Confirm(ctx context.Context, id, hash string) (domain.Record, error) {
	if hash == "" || hash == domain.PendingChainRef {
		return domain.Record{}, fmt.Errorf("%w: empty transaction hash", domain.ErrMalformed)
	}
	if err := uc.repo.Confirm(ctx, id, hash); err != nil {
		return domain.Record{}, err
	}
	if uc.feed == nil {
		return domain.Record{ID: hash}, nil
	}
	uc.feed.Store().ConfirmLocal(id, hash)
	return uc.feed.Get(ctx, hash)
}
