package geofilter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/totegamma/transparence/internal/domain"
)

// nameKeys are the feature properties that may carry a country name. Natural
// Earth uses several of them depending on the release.
var nameKeys = []string{"name", "name_en", "NAME", "ADMIN", "admin"}

// NormalizeCountry lower-cases and trims a country name for comparison.
func NormalizeCountry(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type country struct {
	name    string
	aliases []string
	shape   orb.MultiPolygon
	bound   orb.Bound
}

func (c country) matches(normalized string) bool {
	for _, a := range c.aliases {
		if a == normalized {
			return true
		}
	}
	return false
}

func (c country) contains(p orb.Point) bool {
	if !c.bound.Contains(p) {
		return false
	}
	return planar.MultiPolygonContains(c.shape, p)
}

// CountryIndex holds country boundaries keyed by their name aliases.
// A nil *CountryIndex is valid and means the boundaries are not loaded.
type CountryIndex struct {
	countries []country
}

// ParseCountries builds an index from a GeoJSON FeatureCollection. Features
// without a name or without a polygonal geometry are skipped.
func ParseCountries(data []byte) (*CountryIndex, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse countries: %w", err)
	}

	idx := &CountryIndex{}
	for _, f := range fc.Features {
		var shape orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			shape = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			shape = g
		default:
			continue
		}

		c := country{shape: shape, bound: shape.Bound()}
		for _, key := range nameKeys {
			v := f.Properties.MustString(key, "")
			if v == "" {
				continue
			}
			if c.name == "" {
				c.name = v
			}
			c.aliases = append(c.aliases, NormalizeCountry(v))
		}
		if c.name == "" {
			continue
		}
		idx.countries = append(idx.countries, c)
	}

	return idx, nil
}

// Len returns the number of indexed countries.
func (idx *CountryIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.countries)
}

// Contains reports whether the point lies within any feature whose name
// matches country. Points on a boundary count as inside.
func (idx *CountryIndex) Contains(name string, p domain.LatLng) bool {
	if idx == nil {
		return false
	}
	normalized := NormalizeCountry(name)
	pt := orb.Point{p.Lng, p.Lat}
	for _, c := range idx.countries {
		if c.matches(normalized) && c.contains(pt) {
			return true
		}
	}
	return false
}

// Known reports whether any feature carries the given name.
func (idx *CountryIndex) Known(name string) bool {
	if idx == nil {
		return false
	}
	normalized := NormalizeCountry(name)
	for _, c := range idx.countries {
		if c.matches(normalized) {
			return true
		}
	}
	return false
}

// Locate returns the name of the first country containing p.
func (idx *CountryIndex) Locate(p domain.LatLng) (string, bool) {
	if idx == nil {
		return "", false
	}
	pt := orb.Point{p.Lng, p.Lat}
	for _, c := range idx.countries {
		if c.contains(pt) {
			return c.name, true
		}
	}
	return "", false
}

// Names returns the sorted, de-duplicated display names of the index.
func (idx *CountryIndex) Names() []string {
	if idx == nil {
		return []string{}
	}
	seen := make(map[string]bool, len(idx.countries))
	names := make([]string, 0, len(idx.countries))
	for _, c := range idx.countries {
		if seen[c.name] {
			continue
		}
		seen[c.name] = true
		names = append(names, c.name)
	}
	sort.Strings(names)
	return names
}
