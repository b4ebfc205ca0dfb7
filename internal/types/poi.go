package types

import (
	"time"

	"github.com/google/uuid"
)

// POIQuery identifies one place mentioned in an itinerary. It is built per
// lookup and never persisted directly; the cache key is derived from it.
type POIQuery struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Category string `json:"category,omitempty"`
}

// EnrichmentStatus tags how an enrichment result was produced.
type EnrichmentStatus string

const (
	EnrichmentSuccess       EnrichmentStatus = "success"
	EnrichmentNoMatch       EnrichmentStatus = "no_match"
	EnrichmentBasicFallback EnrichmentStatus = "basic_fallback"
	EnrichmentFailed        EnrichmentStatus = "failed"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Address struct {
	Formatted  string `json:"formatted,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Rating keeps each provider's score alongside the averaged view. Pointer
// fields distinguish "provider had no rating" from a genuine zero.
type Rating struct {
	Foursquare   *float64 `json:"foursquare,omitempty"`
	TripAdvisor  *float64 `json:"tripadvisor,omitempty"`
	Average      *float64 `json:"average,omitempty"`
	TotalReviews int      `json:"total_reviews"`
}

type Hours struct {
	OpenNow   *bool  `json:"open_now,omitempty"`
	Formatted string `json:"formatted,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

type Photo struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// EnrichedPOI is the canonical, provider-agnostic view of a place. It is the
// contract between the merge engine, the cache, and downstream consumers.
type EnrichedPOI struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Coordinates *Coordinates     `json:"coordinates,omitempty"`
	Address     Address          `json:"address"`
	Contact     Contact          `json:"contact"`
	Rating      Rating           `json:"rating"`
	Categories  []string         `json:"categories"`
	PriceLevel  int              `json:"price_level,omitempty"` // 1..4, 0 when unknown
	Hours       *Hours           `json:"hours,omitempty"`
	Photos      []Photo          `json:"photos"`
	Verified    bool             `json:"verified"`
	Status      EnrichmentStatus `json:"enrichment_status"`
}

// FetchError records one provider call failure on a cache entry.
type FetchError struct {
	Source    string    `json:"source"`
	Message   string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// CacheMeta is the bookkeeping block stored with every cache entry.
type CacheMeta struct {
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
	ExpiresAt          time.Time    `json:"expires_at"`
	FoursquareFetched  bool         `json:"provider_a_fetched"`
	TripAdvisorFetched bool         `json:"provider_b_fetched"`
	FetchErrors        []FetchError `json:"fetch_errors,omitempty"`
	HitCount           int          `json:"hit_count"`
	LastAccessed       time.Time    `json:"last_accessed"`
}

// CacheEntry is the unit of storage, one row per PlaceKey. Raw provider
// payloads are retained next to the merged view for re-derivation/debugging.
type CacheEntry struct {
	ID             uuid.UUID           `json:"id,omitempty"`
	PlaceKey       string              `json:"place_key"`
	Query          POIQuery            `json:"query"`
	FoursquareRaw  *FoursquareDetails  `json:"provider_a_raw,omitempty"`
	TripAdvisorRaw *TripAdvisorDetails `json:"provider_b_raw,omitempty"`
	Enriched       EnrichedPOI         `json:"enriched"`
	Meta           CacheMeta           `json:"cache_meta"`
}

// Expired reports whether the entry's TTL has lapsed at the given instant.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.Meta.ExpiresAt)
}

// Activity is the itinerary activity shape the engine annotates. Fields the
// trip planner owns are passed through untouched.
type Activity struct {
	ID               string           `json:"id,omitempty"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	Location         string           `json:"location,omitempty"`
	POIData          *EnrichedPOI     `json:"poi_data,omitempty"`
	EnrichmentStatus EnrichmentStatus `json:"enrichment_status,omitempty"`
	EnrichmentError  string           `json:"enrichment_error,omitempty"`
}

// TripContext carries the itinerary-level location hint handed to the
// extractor alongside the activity list.
type TripContext struct {
	City    string `json:"city"`
	Country string `json:"country"`
}
