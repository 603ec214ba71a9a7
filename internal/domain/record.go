package domain

import (
	"fmt"
	"math"
	"strings"
)

// MediaKind classifies the attached media.
type MediaKind string

const (
	MediaImage    MediaKind = "IMAGE"
	MediaVideo    MediaKind = "VIDEO"
	MediaDocument MediaKind = "DOCUMENT"
)

// ClassifyMedia maps a declared MIME-like string to a MediaKind by substring
// match. It never returns an empty kind.
func ClassifyMedia(mimeType string) MediaKind {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "video"):
		return MediaVideo
	case strings.Contains(m, "pdf"), strings.Contains(m, "doc"):
		return MediaDocument
	default:
		return MediaImage
	}
}

// LocationSource records how a coordinate was obtained. It is not verified.
type LocationSource string

const (
	LocationAuto   LocationSource = "auto"
	LocationManual LocationSource = "manual"
)

// ParseLocationSource falls back to manual for anything but "auto".
func ParseLocationSource(s string) LocationSource {
	if strings.EqualFold(strings.TrimSpace(s), string(LocationAuto)) {
		return LocationAuto
	}
	return LocationManual
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ContentRef points at the media on the content-addressed network.
type ContentRef struct {
	CID string `json:"cid"`
	URL string `json:"url"`
}

// Record represents a single evidence entry.
type Record struct {
	ID               string         `json:"id"`
	MediaKind        MediaKind      `json:"mediaKind"`
	Lat              float64        `json:"lat"`
	Lng              float64        `json:"lng"`
	LocationSource   LocationSource `json:"locationSource"`
	Country          string         `json:"country,omitempty"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Tags             []string       `json:"tags"`
	Content          ContentRef     `json:"content"`
	ChainRef         string         `json:"chainRef"`
	SubmitterAddress string         `json:"submitterAddress"`
	CreatedAt        int64          `json:"createdAt"`
	Verified         bool           `json:"verified"`
}

func (r Record) Position() LatLng {
	return LatLng{Lat: r.Lat, Lng: r.Lng}
}

// Pending reports whether the record still waits for its attestation.
func (r Record) Pending() bool {
	return r.ChainRef == PendingChainRef
}

// Confirm supersedes the local token of a record with the confirmed
// transaction hash.
func (r *Record) Confirm(hash string) {
	if hash == "" || hash == PendingChainRef {
		return
	}
	r.ID = hash
	r.ChainRef = hash
	r.Verified = true
}

// CheckInvariants returns an error wrapping ErrMalformed when the record
// breaks one of the record invariants.
func (r Record) CheckInvariants() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrMalformed)
	}
	switch r.MediaKind {
	case MediaImage, MediaVideo, MediaDocument:
	default:
		return fmt.Errorf("%w: unknown media kind %q", ErrMalformed, r.MediaKind)
	}
	if r.Verified && (r.ChainRef == "" || r.ChainRef == PendingChainRef) {
		return fmt.Errorf("%w: verified record without chain ref", ErrMalformed)
	}
	if !r.Verified && r.ChainRef != PendingChainRef {
		return fmt.Errorf("%w: unverified record must be pending", ErrMalformed)
	}
	return ValidatePosition(r.Lat, r.Lng)
}

// ValidatePosition checks that lat/lng are finite and within WGS 84 bounds.
func ValidatePosition(lat, lng float64) error {
	if !isFinite(lat) || !isFinite(lng) {
		return fmt.Errorf("%w: non-finite position (%v, %v)", ErrMalformed, lat, lng)
	}
	if lat < -MaxLatitude || lat > MaxLatitude {
		return fmt.Errorf("%w: latitude %v out of range", ErrMalformed, lat)
	}
	if lng < -MaxLongitude || lng > MaxLongitude {
		return fmt.Errorf("%w: longitude %v out of range", ErrMalformed, lng)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
