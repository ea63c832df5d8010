package otodom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/MikolajSzawerda/find-me-nest/config"
	"github.com/MikolajSzawerda/find-me-nest/helpers"
	"github.com/MikolajSzawerda/find-me-nest/logger"
	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"
	"github.com/MikolajSzawerda/find-me-nest/services/cache"
)

const blockKey = "otodom_rate_limited"

// Client fetches search results and offer pages from Otodom
type Client struct {
	searchURL        string
	offerBaseURL     string
	priceMin         int
	priceMax         int
	roomsNumber      string
	daysSinceCreated int
	pageLimit        int

	cacheSvc  cache.CacheService
	blockTime time.Duration
	log       *logger.Logger
}

// NewClient creates an Otodom client. cacheSvc may be nil, in which case
// rate-limit responses are not remembered between requests.
func NewClient(cfg *config.Config, cacheSvc cache.CacheService) *Client {
	return &Client{
		searchURL:        cfg.SearchURL,
		offerBaseURL:     cfg.OfferBaseURL,
		priceMin:         cfg.PriceMin,
		priceMax:         cfg.PriceMax,
		roomsNumber:      cfg.RoomsNumber,
		daysSinceCreated: cfg.DaysSinceCreated,
		pageLimit:        cfg.PageLimit,
		cacheSvc:         cacheSvc,
		blockTime:        cfg.BlockTime,
		log:              logger.ForComponent("otodom"),
	}
}

// fetch fetches a URL, honoring an active rate-limit block and setting one
// when the source starts throttling
func (c *Client) fetch(ctx context.Context, target string) (io.Reader, error) {
	if c.cacheSvc != nil {
		if _, err := c.cacheSvc.Get(blockKey); err == nil {
			return nil, fmt.Errorf("source is rate limited, holding off for %s", c.blockTime)
		}
	}

	body, err := helpers.FetchWithBrowserHeaders(ctx, target)
	if err != nil {
		var rateErr *helpers.RateLimitError
		if errors.As(err, &rateErr) && c.cacheSvc != nil {
			if setErr := c.cacheSvc.Set(blockKey, []byte(strconv.Itoa(int(c.blockTime.Seconds()))), c.blockTime); setErr != nil {
				c.log.Warn().Err(setErr).Msg("Failed to set rate-limit block key")
			}
		}
		return nil, err
	}

	return body, nil
}

// searchPageURL builds the search URL for one result page
func (c *Client) searchPageURL(page int) string {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageLimit))
	params.Set("description", "metro")
	params.Set("priceMin", strconv.Itoa(c.priceMin))
	params.Set("priceMax", strconv.Itoa(c.priceMax))
	params.Set("daysSinceCreated", strconv.Itoa(c.daysSinceCreated))
	params.Set("roomsNumber", c.roomsNumber)
	params.Set("by", "DEFAULT")
	params.Set("direction", "DESC")
	params.Set("viewType", "listing")
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	return c.searchURL + "?" + params.Encode()
}

// FetchSearchPage fetches and parses one page of search results.
// An empty slice means the listing is exhausted.
func (c *Client) FetchSearchPage(ctx context.Context, page int) ([]SearchItem, error) {
	target := c.searchPageURL(page)
	c.log.Debug().Int("page", page).Str("url", target).Msg("Fetching search page")

	body, err := c.fetch(ctx, target)
	if err != nil {
		return nil, apperrors.NewListing(fmt.Sprintf("failed to fetch search page %d", page), err)
	}

	items, err := ParseSearchPage(body)
	if err != nil {
		return nil, apperrors.NewListing(fmt.Sprintf("failed to parse search page %d", page), err)
	}
	return items, nil
}

// FetchOffer fetches and parses one offer detail page
func (c *Client) FetchOffer(ctx context.Context, slug string) (*Ad, error) {
	target := c.offerBaseURL + slug
	c.log.Debug().Str("slug", slug).Msg("Fetching offer page")

	body, err := c.fetch(ctx, target)
	if err != nil {
		return nil, apperrors.NewFetch(slug, "failed to fetch offer page", err)
	}

	ad, err := ParseOffer(body)
	if err != nil {
		return nil, apperrors.NewFetch(slug, "failed to parse offer page", err)
	}
	return ad, nil
}
