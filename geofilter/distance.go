package geofilter

import (
	"math"

	"github.com/totegamma/transparence/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance in kilometres between a and b
// using the haversine formula.
func Distance(a, b domain.LatLng) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
