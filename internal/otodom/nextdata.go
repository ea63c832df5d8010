package otodom

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Otodom renders its data as a Next.js payload embedded in the page. Both the
// search results page and the offer detail page carry a script#__NEXT_DATA__
// tag with the full JSON state.

// SearchItem is one offer on the search results page
type SearchItem struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

// Characteristic is one key/value attribute of an offer (price, rent, area, ...)
type Characteristic struct {
	Key            string `json:"key"`
	Label          string `json:"label"`
	Value          string `json:"value"`
	LocalizedValue string `json:"localizedValue"`
}

// Coordinates of the offer location
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AddressPart is one named level of the offer address
type AddressPart struct {
	Name string `json:"name"`
}

// Address of the offer, street and district may be empty
type Address struct {
	Street   AddressPart `json:"street"`
	District AddressPart `json:"district"`
	City     AddressPart `json:"city"`
}

// Location groups coordinates and address
type Location struct {
	Coordinates Coordinates `json:"coordinates"`
	Address     Address     `json:"address"`
}

// Ad is the parsed offer detail
type Ad struct {
	ID              int64            `json:"id"`
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	URL             string           `json:"url"`
	Description     string           `json:"description"`
	AdvertiserType  string           `json:"advertiserType"`
	CreatedAt       string           `json:"createdAt"`
	ModifiedAt      string           `json:"modifiedAt"`
	Characteristics []Characteristic `json:"characteristics"`
	Features        []string         `json:"features"`
	Location        Location         `json:"location"`
}

type searchNextData struct {
	Props struct {
		PageProps struct {
			Data struct {
				SearchAds struct {
					Items []SearchItem `json:"items"`
				} `json:"searchAds"`
			} `json:"data"`
		} `json:"pageProps"`
	} `json:"props"`
}

type offerNextData struct {
	Props struct {
		PageProps struct {
			Ad Ad `json:"ad"`
		} `json:"pageProps"`
	} `json:"props"`
}

// nextDataPayload extracts the raw JSON from the script#__NEXT_DATA__ tag
func nextDataPayload(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	payload := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").Text())
	if payload == "" {
		return "", fmt.Errorf("page carries no __NEXT_DATA__ payload")
	}
	return payload, nil
}

// ParseSearchPage extracts the offer items from a search results page
func ParseSearchPage(r io.Reader) ([]SearchItem, error) {
	payload, err := nextDataPayload(r)
	if err != nil {
		return nil, err
	}

	var data searchNextData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("failed to decode search payload: %w", err)
	}

	return data.Props.PageProps.Data.SearchAds.Items, nil
}

// ParseOffer extracts the ad data from an offer detail page
func ParseOffer(r io.Reader) (*Ad, error) {
	payload, err := nextDataPayload(r)
	if err != nil {
		return nil, err
	}

	var data offerNextData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("failed to decode offer payload: %w", err)
	}

	ad := data.Props.PageProps.Ad
	if ad.Slug == "" {
		return nil, fmt.Errorf("offer payload carries no ad data")
	}
	return &ad, nil
}
