package commute

import (
	"context"
	"fmt"
	"time"

	"github.com/MikolajSzawerda/find-me-nest/internal/metro"
	"github.com/MikolajSzawerda/find-me-nest/internal/offer"
	"github.com/MikolajSzawerda/find-me-nest/logger"
	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"

	"googlemaps.github.io/maps"
)

// notAvailable marks commute fields the route service could not fill
const notAvailable = "N/A"

// routeService is the slice of the Google Maps client the enricher uses
type routeService interface {
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

// Enricher computes commute times from the closest metro station to an offer.
// Offers farther from the metro than maxDistanceKm skip the route service
// entirely and come back marked out of range.
type Enricher struct {
	routes        routeService
	maxDistanceKm float64
	log           *logger.Logger
}

// NewEnricher creates an enricher backed by the Google Maps Distance Matrix API
func NewEnricher(apiKey string, maxDistanceKm float64) (*Enricher, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, apperrors.NewConfiguration("failed to create Google Maps client", err)
	}
	return newEnricher(client, maxDistanceKm), nil
}

func newEnricher(routes routeService, maxDistanceKm float64) *Enricher {
	return &Enricher{
		routes:        routes,
		maxDistanceKm: maxDistanceKm,
		log:           logger.ForComponent("commute"),
	}
}

// Enrich resolves the closest metro station and, for offers within range,
// queries walking and transit durations from the station to the offer.
// A route-service failure degrades to N/A times; the returned Commute is
// always usable even when the error is non-nil.
func (e *Enricher) Enrich(ctx context.Context, slug string, lat, lon float64) (offer.Commute, error) {
	station, distance := metro.Closest(lat, lon)
	commute := offer.Commute{
		Station:     station.Name,
		DistanceKm:  distance,
		WalkingTime: notAvailable,
		TransitTime: notAvailable,
	}

	if distance > e.maxDistanceKm {
		e.log.Debug().
			Str("slug", slug).
			Str("station", station.Name).
			Float64("distance_km", distance).
			Msg("Offer too far from metro, skipping route lookup")
		return commute, nil
	}
	commute.WithinRange = true

	var firstErr error

	walking, err := e.duration(ctx, station, lat, lon, maps.TravelModeWalking)
	if err != nil {
		firstErr = err
	} else {
		commute.WalkingTime = walking
	}

	transit, err := e.duration(ctx, station, lat, lon, maps.TravelModeTransit)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		commute.TransitTime = transit
	}

	if firstErr != nil {
		return commute, apperrors.NewEnrichment(slug, "route lookup failed", firstErr)
	}
	return commute, nil
}

// duration queries one travel mode from the station to the offer location
func (e *Enricher) duration(ctx context.Context, station metro.Station, lat, lon float64, mode maps.Mode) (string, error) {
	resp, err := e.routes.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:       []string{fmt.Sprintf("%f,%f", station.Latitude, station.Longitude)},
		Destinations:  []string{fmt.Sprintf("%f,%f", lat, lon)},
		Mode:          mode,
		DepartureTime: "now",
	})
	if err != nil {
		return "", err
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return "", fmt.Errorf("distance matrix returned no elements")
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return "", fmt.Errorf("distance matrix element status %s", element.Status)
	}

	return formatDuration(element.Duration), nil
}

// formatDuration renders a duration the way the spreadsheet shows it
func formatDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d h %d min", minutes/60, minutes%60)
}
