package geofilter

import (
	"log/slog"

	"github.com/totegamma/transparence/internal/domain"
)

// Filter returns the records that fall inside zone, preserving input order.
//
// COUNTRY mode without a selection yields nothing, while RADIUS mode without
// a center or radius yields everything. When index is nil, COUNTRY mode falls
// back to comparing the record's country attribute.
func Filter(records []domain.Record, zone domain.ZoneSpec, index *CountryIndex) []domain.Record {
	switch zone.Mode {
	case domain.ZoneCountry:
		if zone.SelectedCountry == nil {
			return []domain.Record{}
		}
		return filterCountry(records, *zone.SelectedCountry, index)
	case domain.ZoneRadius:
		if zone.Center == nil || zone.RadiusKm == 0 {
			return records
		}
		return filterRadius(records, *zone.Center, zone.RadiusKm)
	default:
		return records
	}
}

func filterCountry(records []domain.Record, name string, index *CountryIndex) []domain.Record {
	out := make([]domain.Record, 0, len(records))

	if index == nil {
		selected := NormalizeCountry(name)
		for _, r := range records {
			if r.Country != "" && NormalizeCountry(r.Country) == selected {
				out = append(out, r)
			}
		}
		return out
	}

	for _, r := range records {
		if !positionOK(r) {
			continue
		}
		if index.Contains(name, r.Position()) {
			out = append(out, r)
		}
	}
	return out
}

func filterRadius(records []domain.Record, center domain.LatLng, radiusKm float64) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if !positionOK(r) {
			continue
		}
		if Distance(center, r.Position()) <= radiusKm {
			out = append(out, r)
		}
	}
	return out
}

func positionOK(r domain.Record) bool {
	if err := domain.ValidatePosition(r.Lat, r.Lng); err != nil {
		slog.Warn(
			"skipping malformed record",
			slog.String("module", "geofilter"),
			slog.String("id", r.ID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
