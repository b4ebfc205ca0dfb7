package enrichment

import (
	"context"
	"strings"

	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

// POIExtractor reads itinerary activities and yields the place queries to
// enrich. The itinerary pipeline owns the real extraction heuristics; the
// engine only consumes this boundary.
type POIExtractor interface {
	ExtractPOIQueries(ctx context.Context, activities []types.Activity, tripCtx types.TripContext) ([]types.POIQuery, error)
}

var _ POIExtractor = (*ActivityPOIExtractor)(nil)

// ActivityPOIExtractor is the default extractor: one query per activity,
// named from the activity title (or its location field when the title is
// blank), scoped to the trip's city and country. Duplicate place keys are
// suppressed so one landmark mentioned twice costs one lookup.
type ActivityPOIExtractor struct{}

func (e *ActivityPOIExtractor) ExtractPOIQueries(_ context.Context, activities []types.Activity, tripCtx types.TripContext) ([]types.POIQuery, error) {
	queries := make([]types.POIQuery, 0, len(activities))
	seen := make(map[string]struct{}, len(activities))

	for _, activity := range activities {
		name := strings.TrimSpace(activity.Title)
		if name == "" {
			name = strings.TrimSpace(activity.Location)
		}
		if name == "" {
			continue
		}

		query := types.POIQuery{
			Name:    name,
			City:    tripCtx.City,
			Country: tripCtx.Country,
		}
		key := NormalizePlaceKey(query)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		queries = append(queries, query)
	}
	return queries, nil
}
