package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKnownDistances(t *testing.T) {
	paris := Position{Latitude: 48.8566, Longitude: 2.3522}
	london := Position{Latitude: 51.5074, Longitude: -0.1278}

	assert.InDelta(t, 343.5, HaversineKm(paris, london), 1.0)
	assert.InDelta(t, HaversineKm(paris, london), HaversineKm(london, paris), 1e-9)
	assert.Equal(t, 0.0, HaversineKm(paris, paris))
	assert.InDelta(t, HaversineKm(paris, london)*1000, HaversineMeters(paris, london), 1e-6)
}

func TestHaversineAntipode(t *testing.T) {
	north := Position{Latitude: 90, Longitude: 0}
	south := Position{Latitude: -90, Longitude: 0}
	half := math.Pi * EarthRadiusKm

	assert.InDelta(t, half, HaversineKm(north, south), 1e-6)
	assert.False(t, Within(north, south, half-0.001))
	assert.True(t, Within(north, north, 0))
}

func TestShortRangeUsesMeanRadius(t *testing.T) {
	a := Position{Latitude: 48.8566, Longitude: 2.3522}
	b := Position{Latitude: 48.8566, Longitude: 2.3532}
	want := EarthRadiusKm * 1000 * 0.001 * math.Pi / 180 * math.Cos(48.8566*math.Pi/180)

	assert.InDelta(t, want, HaversineMeters(a, b), 0.01)
	assert.InDelta(t, 73.16, HaversineMeters(a, b), 0.05)
}

func TestFromFixed(t *testing.T) {
	p := FromFixed(488566000, 23522000)
	assert.InDelta(t, 48.8566, p.Latitude, 1e-9)
	assert.InDelta(t, 2.3522, p.Longitude, 1e-9)
	assert.Equal(t, "(48.8566000, 2.3522000)", p.String())
}
