package offer

// Record is one row of the identifier list produced by the lister
type Record struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

// Offer is the structured record derived from one offer page
type Offer struct {
	Slug           string   `json:"slug"`
	ID             int64    `json:"offer_id"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Address        string   `json:"address"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	BaseCost       float64  `json:"base_cost"`
	Rent           float64  `json:"rent"`
	TotalCost      float64  `json:"total_cost"`
	Area           string   `json:"area"`
	Description    string   `json:"description"`
	AdvertiserType string   `json:"advertiser_type"`
	CreatedAt      string   `json:"created_at"`
	ModifiedAt     string   `json:"modified_at"`
	Features       []string `json:"features,omitempty"`
}

// Commute describes the closest metro station and travel times to it.
// Times stay empty when the offer is out of range or the route service failed.
type Commute struct {
	Station     string  `json:"closest_metro"`
	DistanceKm  float64 `json:"metro_distance_km"`
	WithinRange bool    `json:"within_range"`
	WalkingTime string  `json:"walking_time,omitempty"`
	TransitTime string  `json:"transit_time,omitempty"`
}

// Analysis holds the description-derived fields. The underlying model is not
// deterministic; any field may come back empty.
type Analysis struct {
	AvailableFrom    string `json:"available_from,omitempty"`
	TotalMonthlyCost string `json:"total_monthly_cost,omitempty"`
	KeyAdvantages    string `json:"key_advantages,omitempty"`
}

// Processed is the fully assembled record written to the spreadsheet
type Processed struct {
	Offer    Offer    `json:"offer"`
	Commute  Commute  `json:"commute"`
	Analysis Analysis `json:"analysis"`
}

// Status returns the row color marker: GREEN for offers close enough to a
// metro station, RED otherwise
func (p *Processed) Status() string {
	if p.Commute.WithinRange {
		return "GREEN"
	}
	return "RED"
}
