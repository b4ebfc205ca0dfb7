package enrichment

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

// MergePlaceDetails combines up to two provider detail records into the
// canonical enriched view under the fixed field-precedence rules. It is a
// pure function: the same inputs always yield the same output, so it is
// testable in isolation. Callers must not invoke it with both records nil;
// that case is BasicFallback's job.
func MergePlaceDetails(query types.POIQuery, fsq *types.FoursquareDetails, ta *types.TripAdvisorDetails) types.EnrichedPOI {
	poi := types.EnrichedPOI{
		Name:       query.Name,
		Categories: []string{},
		Photos:     []types.Photo{},
		Status:     types.EnrichmentSuccess,
	}

	// name: Foursquare wins, then TripAdvisor, then the query itself
	if fsq != nil && fsq.Name != "" {
		poi.Name = fsq.Name
	} else if ta != nil && ta.Name != "" {
		poi.Name = ta.Name
	}

	// description only comes from TripAdvisor
	if ta != nil {
		poi.Description = ta.Description
	}

	poi.Coordinates = mergeCoordinates(fsq, ta)
	poi.Address = mergeAddress(fsq, ta)

	// contact is Foursquare-only
	if fsq != nil {
		poi.Contact = types.Contact{
			Phone:   fsq.Tel,
			Website: fsq.Website,
			Email:   fsq.Email,
		}
	}

	poi.Rating = mergeRating(fsq, ta)
	poi.Categories = mergeCategories(fsq, ta)

	// price: Foursquare's numeric scale wins over TripAdvisor's symbols
	if fsq != nil && fsq.Price >= 1 && fsq.Price <= 4 {
		poi.PriceLevel = fsq.Price
	} else if ta != nil {
		poi.PriceLevel = priceLevelFromSymbol(ta.PriceLevel)
	}

	poi.Hours = mergeHours(fsq, ta)
	poi.Photos = mergePhotos(fsq, ta)

	if fsq != nil {
		poi.Verified = fsq.Verified
	}

	return poi
}

// BasicFallback synthesizes a minimal enriched record straight from the
// query when no provider data is available. Downstream consumers can tell
// it apart from a real enrichment by its status tag.
func BasicFallback(query types.POIQuery) types.EnrichedPOI {
	formatted := strings.TrimPrefix(fmt.Sprintf("%s, %s", query.City, query.Country), ", ")
	formatted = strings.TrimSuffix(formatted, ", ")
	return types.EnrichedPOI{
		Name: query.Name,
		Address: types.Address{
			Formatted: formatted,
			City:      query.City,
			Country:   query.Country,
		},
		Categories: []string{},
		Photos:     []types.Photo{},
		Verified:   false,
		Status:     types.EnrichmentBasicFallback,
	}
}

func mergeCoordinates(fsq *types.FoursquareDetails, ta *types.TripAdvisorDetails) *types.Coordinates {
	if fsq != nil && fsq.Geocodes != nil {
		c := fsq.Geocodes.Main
		return &types.Coordinates{Lat: c.Lat, Lng: c.Lng}
	}
	if ta != nil {
		lat, okLat := parseCoordinate(ta.Latitude)
		lng, okLng := parseCoordinate(ta.Longitude)
		if okLat && okLng {
			return &types.Coordinates{Lat: lat, Lng: lng}
		}
	}
	return nil
}

func mergeAddress(fsq *types.FoursquareDetails, ta *types.TripAdvisorDetails) types.Address {
	if fsq != nil && fsq.Location != nil {
		loc := fsq.Location
		return types.Address{
			Formatted:  loc.FormattedAddress,
			Street:     loc.Address,
			City:       loc.Locality,
			State:      loc.Region,
			Country:    loc.Country,
			PostalCode: loc.PostalCode,
		}
	}
	if ta != nil && ta.Address != nil {
		addr := ta.Address
		return types.Address{
			Formatted:  addr.AddressString,
			Street:     addr.Street1,
			City:       addr.City,
			State:      addr.State,
			Country:    addr.Country,
			PostalCode: addr.PostalCode,
		}
	}
	return types.Address{}
}

func mergeRating(fsq *types.FoursquareDetails, ta *types.TripAdvisorDetails) types.Rating {
	var rating types.Rating
	if fsq != nil && fsq.Rating != nil {
		v := *fsq.Rating
		rating.Foursquare = &v
	}
	if ta != nil && ta.Rating != nil {
		v := *ta.Rating
		rating.TripAdvisor = &v
	}
	switch {
	case rating.Foursquare != nil && rating.TripAdvisor != nil:
		avg := (*rating.Foursquare + *rating.TripAdvisor) / 2
		rating.Average = &avg
	case rating.Foursquare != nil:
		v := *rating.Foursquare
		rating.Average = &v
	case rating.TripAdvisor != nil:
		v := *rating.TripAdvisor
		rating.Average = &v
	}
	if ta != nil {
		rating.TotalReviews = ta.NumReviews
	}
	return rating
}

func mergeCategories(fsq *types.FoursquareDetails, ta *types.TripAdvisorDetails) []string {
	if fsq != nil && len(fsq.Categories) > 0 {
		names := make([]string, 0, len(fsq.Categories))
		for _, cat := range fsq.Categories {
			names = append(names, cat.Name)
		}
		return names
	}
	if ta != nil && ta.CategoryName != "" {
		return []string{ta.CategoryName}
	}
	return []string{}
}

func mergeHours(fsq *types.FoursquareDetails, ta *types.TripAdvisorDetails) *types.Hours {
	if fsq != nil && fsq.Hours != nil {
		open := fsq.Hours.OpenNow
		return &types.Hours{
			OpenNow:   &open,
			Formatted: fsq.Hours.Display,
			Timezone:  fsq.Hours.Timezone,
		}
	}
	// TripAdvisor details carry no structured hours; openNow stays unknown.
	if ta != nil {
		return &types.Hours{Formatted: "See provider listing for hours"}
	}
	return nil
}

func mergePhotos(fsq *types.FoursquareDetails, ta *types.TripAdvisorDetails) []types.Photo {
	photos := []types.Photo{}
	if fsq != nil {
		for _, p := range fsq.Photos {
			photos = append(photos, types.Photo{
				URL:    p.URL(),
				Source: "foursquare",
				Width:  p.Width,
				Height: p.Height,
			})
		}
	}
	if ta != nil && ta.PhotoURL != "" {
		photos = append(photos, types.Photo{
			URL:    ta.PhotoURL,
			Source: "tripadvisor",
			Width:  ta.PhotoWidth,
			Height: ta.PhotoHeight,
		})
	}
	return photos
}
