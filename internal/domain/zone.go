package domain

import (
	"fmt"
	"strings"
)

type ZoneMode string

const (
	ZoneNone    ZoneMode = "NONE"
	ZoneCountry ZoneMode = "COUNTRY"
	ZoneRadius  ZoneMode = "RADIUS"
)

// ParseZoneMode accepts any casing; empty means NONE.
func ParseZoneMode(s string) (ZoneMode, error) {
	switch ZoneMode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ZoneNone:
		return ZoneNone, nil
	case ZoneCountry:
		return ZoneCountry, nil
	case ZoneRadius:
		return ZoneRadius, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidZone, s)
	}
}

// ZoneSpec is an immutable snapshot of the spatial filter.
//
// A nil SelectedCountry in COUNTRY mode and a nil Center in RADIUS mode are
// waiting states, not errors. RadiusKm == 0 means no radius.
type ZoneSpec struct {
	Mode            ZoneMode `json:"mode"`
	SelectedCountry *string  `json:"selectedCountry,omitempty"`
	Center          *LatLng  `json:"center,omitempty"`
	RadiusKm        float64  `json:"radiusKm,omitempty"`
}

// WithMode returns a zone in the given mode with its sub-fields reset.
func (z ZoneSpec) WithMode(mode ZoneMode) ZoneSpec {
	next := ZoneSpec{Mode: mode}
	if mode == ZoneRadius {
		next.RadiusKm = DefaultRadiusKm
	}
	return next
}

func (z ZoneSpec) WithCountry(name string) ZoneSpec {
	if z.Mode != ZoneCountry {
		return z
	}
	z.SelectedCountry = &name
	return z
}

func (z ZoneSpec) WithCenter(center LatLng) ZoneSpec {
	if z.Mode != ZoneRadius {
		return z
	}
	z.Center = &center
	return z
}

func (z ZoneSpec) WithRadius(km float64) ZoneSpec {
	z.RadiusKm = km
	return z
}

// Validate rejects zones no well-behaved caller produces.
func (z ZoneSpec) Validate() error {
	switch z.Mode {
	case ZoneNone, ZoneCountry, ZoneRadius:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidZone, z.Mode)
	}
	if !isFinite(z.RadiusKm) || z.RadiusKm < 0 {
		return fmt.Errorf("%w: radius %v", ErrInvalidZone, z.RadiusKm)
	}
	if z.Center != nil {
		if err := ValidatePosition(z.Center.Lat, z.Center.Lng); err != nil {
			return fmt.Errorf("%w: center: %v", ErrInvalidZone, err)
		}
	}
	return nil
}
