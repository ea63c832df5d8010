package lister

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MikolajSzawerda/find-me-nest/internal/otodom"
	"github.com/MikolajSzawerda/find-me-nest/logger"
	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"
)

// SearchSource pages through the offer listing. An empty page means the
// listing is exhausted.
type SearchSource interface {
	FetchSearchPage(ctx context.Context, page int) ([]otodom.SearchItem, error)
}

// KnownOffers reports which offer IDs are already tracked
type KnownOffers interface {
	ExistingOfferIDs(ctx context.Context) (map[string]struct{}, error)
}

// Lister collects new offer slugs from the search listing and writes them to
// CSV files for the batch driver to pick up.
type Lister struct {
	source SearchSource
	known  KnownOffers

	outputDir         string
	currentOffersFile string

	// Sleep is called between page fetches; tests replace it
	Sleep func(time.Duration)
	Delay time.Duration

	log *logger.Logger
}

// NewLister creates a lister
func NewLister(source SearchSource, known KnownOffers, outputDir, currentOffersFile string, delay time.Duration) *Lister {
	return &Lister{
		source:            source,
		known:             known,
		outputDir:         outputDir,
		currentOffersFile: currentOffersFile,
		Sleep:             time.Sleep,
		Delay:             delay,
		log:               logger.ForComponent("lister"),
	}
}

// Result summarizes one listing run
type Result struct {
	Pages       int
	Found       int
	AlreadySeen int
	New         []otodom.SearchItem
	BatchFile   string
}

// Run pages through the listing, drops offers already present in the sheet
// and writes the remaining slugs to a timestamped batch file plus the
// current-offers file.
func (l *Lister) Run(ctx context.Context) (*Result, error) {
	known, err := l.known.ExistingOfferIDs(ctx)
	if err != nil {
		return nil, err
	}
	l.log.Info().Int("known_offers", len(known)).Msg("Loaded already tracked offers")

	result := &Result{}
	for page := 1; ; page++ {
		items, err := l.source.FetchSearchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}

		result.Pages++
		result.Found += len(items)
		for _, item := range items {
			if _, seen := known[strconv.FormatInt(item.ID, 10)]; seen {
				result.AlreadySeen++
				continue
			}
			result.New = append(result.New, item)
		}

		if l.Delay > 0 {
			l.Sleep(l.Delay)
		}
	}

	l.log.Info().
		Int("pages", result.Pages).
		Int("found", result.Found).
		Int("already_seen", result.AlreadySeen).
		Int("new", len(result.New)).
		Msg("Listing complete")

	batchFile, err := l.writeFiles(result.New)
	if err != nil {
		return nil, err
	}
	result.BatchFile = batchFile

	return result, nil
}

// writeFiles writes the slugs to a timestamped batch file under the output
// directory and mirrors them to the current-offers file in the working
// directory
func (l *Lister) writeFiles(items []otodom.SearchItem) (string, error) {
	if err := os.MkdirAll(l.outputDir, 0o755); err != nil {
		return "", apperrors.NewListing("failed to create output directory", err)
	}

	batchFile := filepath.Join(l.outputDir, fmt.Sprintf("offers_%s.csv", time.Now().Format("20060102_150405")))
	for _, path := range []string{batchFile, l.currentOffersFile} {
		if err := writeSlugCSV(path, items); err != nil {
			return "", err
		}
	}

	l.log.Info().Str("file", batchFile).Int("slugs", len(items)).Msg("Wrote slug batch file")
	return batchFile, nil
}

func writeSlugCSV(path string, items []otodom.SearchItem) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewListing("failed to create slug file "+path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"slug"}); err != nil {
		return apperrors.NewListing("failed to write slug file header", err)
	}
	for _, item := range items {
		if err := w.Write([]string{item.Slug}); err != nil {
			return apperrors.NewListing("failed to write slug row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewListing("failed to flush slug file", err)
	}
	return nil
}
