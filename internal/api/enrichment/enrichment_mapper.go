package enrichment

import (
	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

// mapEnrichedToActivities re-attaches enriched records to the activities
// that referenced them. The join is a best-effort heuristic: a POI matches
// an activity when its name textually overlaps the activity title or
// description (case-insensitive substring, either direction). When several
// POIs overlap the same activity the longest name wins, which keeps generic
// names like "Market" from shadowing "Tsukiji Outer Market". Activities
// with no match pass through unchanged, tagged no_match.
func mapEnrichedToActivities(activities []types.Activity, enriched []types.EnrichedPOI) []types.Activity {
	out := make([]types.Activity, len(activities))
	for i, activity := range activities {
		out[i] = activity

		best := -1
		for j, poi := range enriched {
			if poi.Name == "" {
				continue
			}
			if !textOverlap(activity.Title, poi.Name) && !textOverlap(activity.Description, poi.Name) {
				continue
			}
			if best == -1 || len(poi.Name) > len(enriched[best].Name) {
				best = j
			}
		}

		if best == -1 {
			out[i].EnrichmentStatus = types.EnrichmentNoMatch
			continue
		}

		poi := enriched[best]
		out[i].POIData = &poi
		if poi.Address.Formatted != "" {
			out[i].Location = poi.Address.Formatted
		}
		if poi.Status == types.EnrichmentBasicFallback {
			out[i].EnrichmentStatus = types.EnrichmentBasicFallback
		} else {
			out[i].EnrichmentStatus = types.EnrichmentSuccess
		}
	}
	return out
}
