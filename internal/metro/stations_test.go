package metro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	// Same point
	assert.InDelta(t, 0, Distance(52.23, 21.01, 52.23, 21.01), 1e-9)

	// One degree of latitude is roughly 111 km
	assert.InDelta(t, 111.2, Distance(52.0, 21.0, 53.0, 21.0), 0.5)

	// Symmetric
	d1 := Distance(52.2298, 21.0118, 52.1806, 21.0235)
	d2 := Distance(52.1806, 21.0235, 52.2298, 21.0118)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestClosest(t *testing.T) {
	// A point right at a station resolves to that station
	for _, station := range []string{"Centrum", "Wilanowska", "Trocka"} {
		var want Station
		for _, s := range Stations {
			if s.Name == station {
				want = s
			}
		}

		got, distance := Closest(want.Latitude, want.Longitude)
		assert.Equal(t, want.Name, got.Name)
		assert.InDelta(t, 0, distance, 1e-9)
	}
}

func TestClosestNearby(t *testing.T) {
	// A point slightly east of Centrum is still closest to Centrum
	station, distance := Closest(52.2298, 21.0150)
	assert.Equal(t, "Centrum", station.Name)
	assert.Greater(t, distance, 0.0)
	assert.Less(t, distance, 0.5)
}

func TestClosestFarAway(t *testing.T) {
	// Krakow is nowhere near the Warsaw metro
	_, distance := Closest(50.0647, 19.9450)
	assert.Greater(t, distance, 100.0)
}
