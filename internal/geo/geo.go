// Package geo holds the great-circle math shared by the query layer and the
// dissemination engine.
package geo

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for every distance in g5trace.
const EarthRadiusKm = 6371.0

// FixedPointScale is the ITS fixed-point factor: coordinates are carried as
// degrees × 10^7.
const FixedPointScale = 1e7

// Position is a point in decimal degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FromFixed converts raw 1e7-scaled coordinates into a Position. The raw
// values are not modified; callers convert exactly once.
func FromFixed(lat, lon int64) Position {
	return Position{
		Latitude:  float64(lat) / FixedPointScale,
		Longitude: float64(lon) / FixedPointScale,
	}
}

func (p Position) String() string {
	return fmt.Sprintf("(%.7f, %.7f)", p.Latitude, p.Longitude)
}

// HaversineKm returns the great-circle distance between a and b in kilometres.
func HaversineKm(a, b Position) float64 {
	return a.latLng().Distance(b.latLng()).Radians() * EarthRadiusKm
}

// HaversineMeters returns the great-circle distance between a and b in metres.
func HaversineMeters(a, b Position) float64 {
	return HaversineKm(a, b) * 1000
}

// Within reports whether b lies within radiusKm of a.
func Within(a, b Position, radiusKm float64) bool {
	return HaversineKm(a, b) <= radiusKm
}

func (p Position) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Latitude, p.Longitude)
}
