package recordstore

import (
	"encoding/hex"
	"sort"

	"github.com/zeebo/xxh3"

	"github.com/totegamma/transparence/internal/domain"
	"github.com/totegamma/transparence/internal/utils"
)

// Merge de-duplicates remote and local records by id. Remote records are
// written first and local ones after, so local wins on conflict. Each id keeps
// the position of its first appearance.
func Merge(remote, local []domain.Record) []domain.Record {
	om := utils.NewOrderedKVMap[domain.Record](len(remote) + len(local))
	for _, r := range remote {
		om.Set(r.ID, r)
	}
	for _, r := range local {
		om.Set(r.ID, r)
	}
	return om.Values()
}

// SortNewestFirst returns a copy of records ordered by CreatedAt descending.
// Records created at the same instant keep their relative order.
func SortNewestFirst(records []domain.Record) []domain.Record {
	sorted := make([]domain.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})
	return sorted
}

// Fingerprint digests the identity and confirmation state of records in
// order. Equal inputs always give equal fingerprints.
func Fingerprint(records []domain.Record) string {
	h := xxh3.New()
	for _, r := range records {
		h.WriteString(r.ID)
		h.WriteString("\x00")
		h.WriteString(r.ChainRef)
		h.WriteString("\x00")
	}
	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:])
}
