package domain

import (
	"errors"
	"math"
	"testing"
)

func TestZoneWithModeResets(t *testing.T) {
	z := ZoneSpec{Mode: ZoneCountry}.WithCountry("France")
	if z.SelectedCountry == nil || *z.SelectedCountry != "France" {
		t.Fatalf("expected country to be set")
	}

	r := z.WithMode(ZoneRadius)
	if r.SelectedCountry != nil || r.Center != nil {
		t.Fatalf("sub-fields not reset: %+v", r)
	}
	if r.RadiusKm != DefaultRadiusKm {
		t.Fatalf("expected default radius, got %v", r.RadiusKm)
	}

	r = r.WithCenter(LatLng{Lat: 1, Lng: 2})
	c := r.WithMode(ZoneCountry)
	if c.Center != nil || c.RadiusKm != 0 {
		t.Fatalf("radius state leaked into country mode: %+v", c)
	}
}

func TestZoneSettersIgnoreOtherModes(t *testing.T) {
	z := ZoneSpec{Mode: ZoneNone}
	if z.WithCountry("France").SelectedCountry != nil {
		t.Fatalf("country must only be set in COUNTRY mode")
	}
	if z.WithCenter(LatLng{}).Center != nil {
		t.Fatalf("center must only be set in RADIUS mode")
	}
}

func TestZoneValidate(t *testing.T) {
	ok := []ZoneSpec{
		{Mode: ZoneNone},
		{Mode: ZoneCountry},
		{Mode: ZoneRadius, RadiusKm: 50, Center: &LatLng{Lat: 10, Lng: 10}},
	}
	for i, z := range ok {
		if err := z.Validate(); err != nil {
			t.Errorf("case %d: unexpected error %v", i, err)
		}
	}

	bad := []ZoneSpec{
		{Mode: "CIRCLE"},
		{Mode: ZoneRadius, RadiusKm: -1},
		{Mode: ZoneRadius, RadiusKm: math.NaN()},
		{Mode: ZoneRadius, RadiusKm: 10, Center: &LatLng{Lat: 100}},
	}
	for i, z := range bad {
		if err := z.Validate(); !errors.Is(err, ErrInvalidZone) {
			t.Errorf("case %d: expected ErrInvalidZone, got %v", i, err)
		}
	}
}

func TestParseZoneMode(t *testing.T) {
	for in, want := range map[string]ZoneMode{"": ZoneNone, "radius": ZoneRadius, "Country": ZoneCountry} {
		got, err := ParseZoneMode(in)
		if err != nil || got != want {
			t.Errorf("ParseZoneMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseZoneMode("box"); !errors.Is(err, ErrInvalidZone) {
		t.Fatalf("expected ErrInvalidZone, got %v", err)
	}
}
