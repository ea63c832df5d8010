package commute

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

// fakeRoutes returns canned durations per travel mode
type fakeRoutes struct {
	durations map[maps.Mode]time.Duration
	status    string
	err       error
	calls     int
}

func (f *fakeRoutes) DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == "" {
		status = "OK"
	}
	return &maps.DistanceMatrixResponse{
		Rows: []maps.DistanceMatrixElementsRow{{
			Elements: []*maps.DistanceMatrixElement{{
				Status:   status,
				Duration: f.durations[r.Mode],
			}},
		}},
	}, nil
}

func TestEnrichWithinRange(t *testing.T) {
	routes := &fakeRoutes{durations: map[maps.Mode]time.Duration{
		maps.TravelModeWalking: 9 * time.Minute,
		maps.TravelModeTransit: 4 * time.Minute,
	}}
	enricher := newEnricher(routes, 1.0)

	// Right next to Centrum station
	commute, err := enricher.Enrich(context.Background(), "flat-1", 52.2298, 21.0150)
	require.NoError(t, err)

	assert.Equal(t, "Centrum", commute.Station)
	assert.True(t, commute.WithinRange)
	assert.Equal(t, "9 min", commute.WalkingTime)
	assert.Equal(t, "4 min", commute.TransitTime)
	assert.Equal(t, 2, routes.calls)
}

func TestEnrichOutOfRangeSkipsRouteService(t *testing.T) {
	routes := &fakeRoutes{}
	enricher := newEnricher(routes, 1.0)

	// Krakow is far from every Warsaw station
	commute, err := enricher.Enrich(context.Background(), "flat-2", 50.0647, 19.9450)
	require.NoError(t, err)

	assert.False(t, commute.WithinRange)
	assert.Equal(t, "N/A", commute.WalkingTime)
	assert.Equal(t, "N/A", commute.TransitTime)
	assert.Zero(t, routes.calls, "out-of-range offers must not hit the route service")
}

func TestEnrichServiceFailureDegrades(t *testing.T) {
	routes := &fakeRoutes{err: errors.New("OVER_QUERY_LIMIT")}
	enricher := newEnricher(routes, 1.0)

	commute, err := enricher.Enrich(context.Background(), "flat-3", 52.2298, 21.0150)
	require.Error(t, err)
	assert.Equal(t, apperrors.StageEnrichment, apperrors.StageOf(err))

	// The commute record stays usable so the offer can still be persisted
	assert.Equal(t, "Centrum", commute.Station)
	assert.True(t, commute.WithinRange)
	assert.Equal(t, "N/A", commute.WalkingTime)
	assert.Equal(t, "N/A", commute.TransitTime)
}

func TestEnrichElementNotOK(t *testing.T) {
	routes := &fakeRoutes{status: "ZERO_RESULTS"}
	enricher := newEnricher(routes, 1.0)

	commute, err := enricher.Enrich(context.Background(), "flat-4", 52.2298, 21.0150)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZERO_RESULTS")
	assert.Equal(t, "N/A", commute.WalkingTime)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "1 min"},
		{9 * time.Minute, "9 min"},
		{59*time.Minute + 40*time.Second, "1 h 0 min"},
		{75 * time.Minute, "1 h 15 min"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d), "formatDuration(%v)", tt.d)
	}
}
