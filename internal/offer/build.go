package offer

import (
	"strconv"
	"strings"

	"github.com/MikolajSzawerda/find-me-nest/internal/otodom"
	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"
)

// FromAd derives the structured offer record from a parsed ad. The base price
// must be present and numeric; rent is optional and defaults to zero.
func FromAd(ad *otodom.Ad) (*Offer, error) {
	price, ok := characteristicFloat(ad, "price")
	if !ok {
		return nil, apperrors.NewExtraction(ad.Slug, "offer carries no numeric price", nil)
	}

	rent, ok := characteristicFloat(ad, "rent")
	if !ok {
		rent = 0
	}

	if ad.Location.Coordinates.Latitude == 0 && ad.Location.Coordinates.Longitude == 0 {
		return nil, apperrors.NewExtraction(ad.Slug, "offer carries no coordinates", nil)
	}

	return &Offer{
		Slug:           ad.Slug,
		ID:             ad.ID,
		URL:            ad.URL,
		Title:          ad.Title,
		Address:        joinAddress(ad.Location.Address),
		Latitude:       ad.Location.Coordinates.Latitude,
		Longitude:      ad.Location.Coordinates.Longitude,
		BaseCost:       price,
		Rent:           rent,
		TotalCost:      price + rent,
		Area:           areaOf(ad),
		Description:    ad.Description,
		AdvertiserType: ad.AdvertiserType,
		CreatedAt:      ad.CreatedAt,
		ModifiedAt:     ad.ModifiedAt,
		Features:       ad.Features,
	}, nil
}

// characteristicFloat looks up a characteristic by key and parses its value
func characteristicFloat(ad *otodom.Ad, key string) (float64, bool) {
	for _, c := range ad.Characteristics {
		if c.Key == key {
			value, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
			if err != nil {
				return 0, false
			}
			return value, true
		}
	}
	return 0, false
}

// areaOf returns the surface area characteristic, preferring the localized
// form ("48 m2") over the bare value
func areaOf(ad *otodom.Ad) string {
	for _, c := range ad.Characteristics {
		if c.Key == "m" || c.Label == "Powierzchnia" {
			if c.LocalizedValue != "" {
				return c.LocalizedValue
			}
			return c.Value
		}
	}
	return ""
}

// joinAddress assembles "street, district, city" skipping empty parts
func joinAddress(addr otodom.Address) string {
	var parts []string
	for _, name := range []string{addr.Street.Name, addr.District.Name, addr.City.Name} {
		if name != "" {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}
