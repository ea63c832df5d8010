package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MikolajSzawerda/find-me-nest/internal/extract"
	"github.com/MikolajSzawerda/find-me-nest/internal/offer"
	"github.com/MikolajSzawerda/find-me-nest/internal/otodom"
	"github.com/MikolajSzawerda/find-me-nest/logger"
	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"
	"github.com/MikolajSzawerda/find-me-nest/services/publisher"
)

// OfferSource fetches one offer detail page
type OfferSource interface {
	FetchOffer(ctx context.Context, slug string) (*otodom.Ad, error)
}

// Enricher resolves the closest metro station and commute times
type Enricher interface {
	Enrich(ctx context.Context, slug string, lat, lon float64) (offer.Commute, error)
}

// Analyzer derives the description-only fields
type Analyzer interface {
	Analyze(ctx context.Context, slug, description string) (offer.Analysis, error)
}

// Sink persists processed offers
type Sink interface {
	Upsert(ctx context.Context, p *offer.Processed) error
}

// Driver runs the per-offer pipeline over a batch of slugs. One offer failing
// never stops the batch; only fatal errors (broken credentials) abort it.
type Driver struct {
	source   OfferSource
	enricher Enricher
	analyzer Analyzer
	sink     Sink

	// pub is optional; when set, every persisted offer is also published
	pub publisher.Publisher

	// Sleep is called between offers; tests replace it
	Sleep func(time.Duration)
	Delay time.Duration

	log *logger.Logger
}

// NewDriver creates a pipeline driver. pub may be nil.
func NewDriver(source OfferSource, enricher Enricher, analyzer Analyzer, sink Sink, pub publisher.Publisher, delay time.Duration) *Driver {
	return &Driver{
		source:   source,
		enricher: enricher,
		analyzer: analyzer,
		sink:     sink,
		pub:      pub,
		Sleep:    time.Sleep,
		Delay:    delay,
		log:      logger.ForComponent("pipeline"),
	}
}

// Failure records one offer the batch could not process
type Failure struct {
	Slug  string
	Stage apperrors.Stage
	Err   error
}

// Summary accumulates the outcome of one batch run
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []Failure
}

// Run processes every slug in order. It returns a non-nil Summary together
// with the fatal error when the batch had to abort early.
func (d *Driver) Run(ctx context.Context, slugs []string) (*Summary, error) {
	summary := &Summary{Total: len(slugs)}

	for i, slug := range slugs {
		if err := ctx.Err(); err != nil {
			d.logSummary(summary)
			return summary, err
		}

		if err := d.processOne(ctx, slug); err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{
				Slug:  slug,
				Stage: apperrors.StageOf(err),
				Err:   err,
			})
			logger.LogError("pipeline", err, "Failed to process offer %s", slug)

			if apperrors.IsFatal(err) {
				d.logSummary(summary)
				return summary, err
			}
		} else {
			summary.Succeeded++
		}

		if d.Delay > 0 && i < len(slugs)-1 {
			d.Sleep(d.Delay)
		}
	}

	d.logSummary(summary)
	return summary, nil
}

// processOne runs one offer through fetch, enrichment, analysis and the sink.
// Enrichment and analysis failures degrade; the offer is persisted anyway.
func (d *Driver) processOne(ctx context.Context, slug string) error {
	ad, err := d.source.FetchOffer(ctx, slug)
	if err != nil {
		return err
	}

	o, err := offer.FromAd(ad)
	if err != nil {
		return err
	}

	commute, err := d.enricher.Enrich(ctx, slug, o.Latitude, o.Longitude)
	if err != nil {
		d.log.Warn().Err(err).Str("slug", slug).Msg("Commute enrichment degraded")
	}

	analysis, err := d.analyzer.Analyze(ctx, slug, extract.BuildDescription(ad, commute))
	if err != nil {
		d.log.Warn().Err(err).Str("slug", slug).Msg("Description analysis degraded")
	}

	processed := &offer.Processed{Offer: *o, Commute: commute, Analysis: analysis}
	if err := d.sink.Upsert(ctx, processed); err != nil {
		return err
	}

	d.publish(processed)

	d.log.Info().
		Str("slug", slug).
		Str("status", processed.Status()).
		Str("station", commute.Station).
		Msg("Processed offer")
	return nil
}

// publish pushes the processed offer onto the notification stream, best effort
func (d *Driver) publish(p *offer.Processed) {
	if d.pub == nil {
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		d.log.Warn().Err(err).Str("slug", p.Offer.Slug).Msg("Failed to encode offer for publishing")
		return
	}
	if err := d.pub.Publish(payload); err != nil {
		d.log.Warn().Err(err).Str("slug", p.Offer.Slug).Msg("Failed to publish offer")
	}
}

func (d *Driver) logSummary(s *Summary) {
	d.log.Info().
		Int("total", s.Total).
		Int("succeeded", s.Succeeded).
		Int("failed", s.Failed).
		Msg("Batch complete")
}
