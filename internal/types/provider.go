package types

import "time"

// FoursquareCandidate is one Place Search result.
type FoursquareCandidate struct {
	FsqID    string `json:"fsq_id"`
	Name     string `json:"name"`
	Distance int    `json:"distance,omitempty"`
}

type FoursquareGeocodes struct {
	Main Coordinates `json:"main"`
}

type FoursquareLocation struct {
	Address          string `json:"address,omitempty"`
	Locality         string `json:"locality,omitempty"`
	Region           string `json:"region,omitempty"`
	Country          string `json:"country,omitempty"`
	PostalCode       string `json:"postcode,omitempty"`
	FormattedAddress string `json:"formatted_address,omitempty"`
}

type FoursquareCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type FoursquareHours struct {
	OpenNow  bool   `json:"open_now"`
	Display  string `json:"display,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

type FoursquarePhoto struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// URL renders the photo at its native size.
func (p FoursquarePhoto) URL() string {
	return p.Prefix + "original" + p.Suffix
}

// FoursquareDetails is the raw provider A payload kept on a cache entry.
// Rating is already normalized to a 0..5 scale by the client.
type FoursquareDetails struct {
	FsqID      string               `json:"fsq_id"`
	Name       string               `json:"name"`
	Geocodes   *FoursquareGeocodes  `json:"geocodes,omitempty"`
	Location   *FoursquareLocation  `json:"location,omitempty"`
	Categories []FoursquareCategory `json:"categories,omitempty"`
	Tel        string               `json:"tel,omitempty"`
	Website    string               `json:"website,omitempty"`
	Email      string               `json:"email,omitempty"`
	Rating     *float64             `json:"rating,omitempty"`
	Price      int                  `json:"price,omitempty"` // 1..4
	Hours      *FoursquareHours     `json:"hours,omitempty"`
	Photos     []FoursquarePhoto    `json:"photos,omitempty"`
	Verified   bool                 `json:"verified"`
}

// TripAdvisorCandidate is one Location Search result.
type TripAdvisorCandidate struct {
	LocationID string `json:"location_id"`
	Name       string `json:"name"`
}

type TripAdvisorAddress struct {
	Street1       string `json:"street1,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Country       string `json:"country,omitempty"`
	PostalCode    string `json:"postalcode,omitempty"`
	AddressString string `json:"address_string,omitempty"`
}

type TripAdvisorReview struct {
	Title         string    `json:"title,omitempty"`
	Text          string    `json:"text,omitempty"`
	Rating        float64   `json:"rating,omitempty"`
	PublishedDate time.Time `json:"published_date,omitempty"`
}

// TripAdvisorDetails is the raw provider B payload kept on a cache entry.
// Latitude/Longitude arrive as strings on the wire and are parsed at merge
// time; PriceLevel is the symbolic $..$$$$ scale.
type TripAdvisorDetails struct {
	LocationID   string              `json:"location_id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Latitude     string              `json:"latitude,omitempty"`
	Longitude    string              `json:"longitude,omitempty"`
	Address      *TripAdvisorAddress `json:"address_obj,omitempty"`
	Rating       *float64            `json:"rating,omitempty"`
	NumReviews   int                 `json:"num_reviews,omitempty"`
	PriceLevel   string              `json:"price_level,omitempty"`
	CategoryName string              `json:"category,omitempty"`
	PhotoURL     string              `json:"photo_url,omitempty"` // single large photo
	PhotoWidth   int                 `json:"photo_width,omitempty"`
	PhotoHeight  int                 `json:"photo_height,omitempty"`
	Reviews      []TripAdvisorReview `json:"reviews,omitempty"`
}
