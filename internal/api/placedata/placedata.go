// Package placedata holds the clients for the external place-data providers.
// The enrichment engine consumes the two capability interfaces below and
// never touches provider transport or response shapes directly.
package placedata

import (
	"context"

	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

const (
	SourceFoursquare  = "foursquare"
	SourceTripAdvisor = "tripadvisor"
)

// FoursquareProvider is the capability surface of provider A.
// Search returning an empty slice means "no such place", not an error.
type FoursquareProvider interface {
	Search(ctx context.Context, nameQuery, locationHint, category string) ([]types.FoursquareCandidate, error)
	GetDetails(ctx context.Context, fsqID string) (*types.FoursquareDetails, error)
}

// TripAdvisorProvider is the capability surface of provider B. It is the
// only provider that also exposes reviews, as an optional extra call.
type TripAdvisorProvider interface {
	Search(ctx context.Context, nameQuery, locationHint, category string) ([]types.TripAdvisorCandidate, error)
	GetDetails(ctx context.Context, locationID string) (*types.TripAdvisorDetails, error)
	GetReviews(ctx context.Context, locationID string, limit int) ([]types.TripAdvisorReview, error)
}
