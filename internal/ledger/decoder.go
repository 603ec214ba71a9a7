package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/internal/domain"
	"github.com/totegamma/transparence/schemas"
)

// SkipReason explains why a transaction produced no record.
type SkipReason string

const (
	SkipNotPayment   SkipReason = "not_payment"
	SkipNoMemo       SkipReason = "no_memo"
	SkipBadHex       SkipReason = "bad_hex"
	SkipBadJSON      SkipReason = "bad_json"
	SkipMissingField SkipReason = "missing_field"
	SkipBadPosition  SkipReason = "bad_position"
)

// Report tallies skipped transactions by reason.
type Report struct {
	Decoded int
	Skipped map[SkipReason]int
}

func (r *Report) skip(reason SkipReason) {
	if r.Skipped == nil {
		r.Skipped = make(map[SkipReason]int)
	}
	r.Skipped[reason]++
}

// Decoder turns journal transactions into records.
type Decoder struct {
	// Now supplies the fallback creation time. time.Now when nil.
	Now func() time.Time
}

// Decode is a shorthand for a Decoder using the wall clock.
func Decode(txs []transparence.RawTx) []domain.Record {
	return Decoder{}.Decode(txs)
}

// Decode returns one record per transaction carrying a well-formed proof memo.
// Transactions that do not decode are skipped, never aborting the batch.
func (d Decoder) Decode(txs []transparence.RawTx) []domain.Record {
	records, _ := d.DecodeWithReport(txs)
	return records
}

func (d Decoder) DecodeWithReport(txs []transparence.RawTx) ([]domain.Record, Report) {
	var report Report
	records := make([]domain.Record, 0, len(txs))

	for _, tx := range txs {
		record, reason, err := d.decodeTx(tx)
		if reason != "" {
			report.skip(reason)
			if err != nil {
				slog.Debug(
					"skipping journal transaction",
					slog.String("module", "ledger"),
					slog.String("hash", tx.Hash),
					slog.String("reason", string(reason)),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		records = append(records, record)
	}

	report.Decoded = len(records)
	return records, report
}

func (d Decoder) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Decoder) decodeTx(tx transparence.RawTx) (domain.Record, SkipReason, error) {
	if tx.TransactionType != schemas.TransactionTypePayment {
		return domain.Record{}, SkipNotPayment, nil
	}
	if len(tx.Memos) == 0 {
		return domain.Record{}, SkipNoMemo, nil
	}

	memo, ok := findProofMemo(tx.Memos)
	if !ok {
		return domain.Record{}, SkipNoMemo, nil
	}

	data, err := transparence.HexToString(memo.MemoData)
	if err != nil {
		return domain.Record{}, SkipBadHex, err
	}

	var payload proofPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return domain.Record{}, SkipBadJSON, err
	}

	meta, ok := payload.meta()
	if !ok {
		return domain.Record{}, SkipMissingField, errors.New("proof payload lacks cid, url or numeric coordinates")
	}
	if err := domain.ValidatePosition(*meta.Lat, *meta.Lon); err != nil {
		return domain.Record{}, SkipBadPosition, err
	}

	createdAt := meta.CreatedAt
	if createdAt == 0 && tx.Date != nil {
		createdAt = transparence.RippleEpochToUnixMilli(*tx.Date)
	}
	if createdAt == 0 {
		createdAt = d.now().UnixMilli()
	}

	id := tx.Hash
	if id == "" {
		id = meta.CID + "-"
		if meta.CreatedAt != 0 {
			id += strconv.FormatInt(meta.CreatedAt, 10)
		}
	}

	mediaType := meta.MediaType
	if mediaType == "" {
		mediaType = "image"
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = domain.DefaultOnChainTitle
	}

	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}

	return domain.Record{
		ID:               id,
		MediaKind:        domain.ClassifyMedia(mediaType),
		Lat:              *meta.Lat,
		Lng:              *meta.Lon,
		LocationSource:   domain.ParseLocationSource(meta.LocationSource),
		Title:            title,
		Description:      meta.Description,
		Tags:             tags,
		Content:          domain.ContentRef{CID: meta.CID, URL: meta.URL},
		ChainRef:         id,
		SubmitterAddress: tx.Account,
		CreatedAt:        createdAt,
		Verified:         true,
	}, "", nil
}

// proofPayload holds the memo JSON before field types are checked, so a
// mistyped optional field falls back to its default instead of rejecting
// the transaction.
type proofPayload struct {
	CID            json.RawMessage `json:"cid"`
	URL            json.RawMessage `json:"url"`
	MediaType      json.RawMessage `json:"mediaType"`
	Lat            json.RawMessage `json:"lat"`
	Lon            json.RawMessage `json:"lon"`
	Title          json.RawMessage `json:"title"`
	Description    json.RawMessage `json:"description"`
	Tags           json.RawMessage `json:"tags"`
	LocationSource json.RawMessage `json:"locationSource"`
	CreatedAt      json.RawMessage `json:"createdAt"`
}

// meta reports false when a required field is missing or mistyped.
func (p proofPayload) meta() (transparence.ProofMeta, bool) {
	meta := transparence.ProofMeta{
		CID:            rawString(p.CID),
		URL:            rawString(p.URL),
		MediaType:      rawString(p.MediaType),
		Lat:            rawNumber(p.Lat),
		Lon:            rawNumber(p.Lon),
		Title:          rawString(p.Title),
		Description:    rawString(p.Description),
		Tags:           rawStrings(p.Tags),
		LocationSource: rawString(p.LocationSource),
	}
	if createdAt := rawNumber(p.CreatedAt); createdAt != nil && *createdAt > 0 {
		meta.CreatedAt = int64(*createdAt)
	}
	ok := meta.CID != "" && meta.URL != "" && meta.Lat != nil && meta.Lon != nil
	return meta, ok
}

func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func rawNumber(raw json.RawMessage) *float64 {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return nil
	}
	return &f
}

// rawStrings keeps the string elements of a JSON array.
func rawStrings(raw json.RawMessage) []string {
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}

// findProofMemo returns the first memo tagged with the proof memo type.
// Memos whose type does not decode are ignored.
func findProofMemo(memos []transparence.Memo) (transparence.MemoFields, bool) {
	for _, m := range memos {
		if m.Memo.MemoType == "" {
			continue
		}
		memoType, err := transparence.HexToString(m.Memo.MemoType)
		if err != nil {
			continue
		}
		if memoType == schemas.MemoTypeV1 {
			return m.Memo, true
		}
	}
	return transparence.MemoFields{}, false
}
