package enrichment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

func float64Ptr(v float64) *float64 { return &v }

func foursquareFixture() *types.FoursquareDetails {
	return &types.FoursquareDetails{
		FsqID: "fsq-123",
		Name:  "Sensoji Temple",
		Geocodes: &types.FoursquareGeocodes{
			Main: types.Coordinates{Lat: 35.7148, Lng: 139.7967},
		},
		Location: &types.FoursquareLocation{
			Address:          "2-3-1 Asakusa",
			Locality:         "Tokyo",
			Region:           "Tokyo",
			Country:          "JP",
			PostalCode:       "111-0032",
			FormattedAddress: "2-3-1 Asakusa, Taito, Tokyo",
		},
		Categories: []types.FoursquareCategory{
			{ID: 12106, Name: "Buddhist Temple"},
			{ID: 16000, Name: "Landmark"},
		},
		Tel:     "+81 3-3842-0181",
		Website: "https://www.senso-ji.jp",
		Rating:  float64Ptr(4.5),
		Price:   1,
		Hours: &types.FoursquareHours{
			OpenNow:  true,
			Display:  "Open Daily 6:00-17:00",
			Timezone: "Asia/Tokyo",
		},
		Photos: []types.FoursquarePhoto{
			{Prefix: "https://fastly.4sqi.net/img/general/", Suffix: "/photo1.jpg", Width: 1920, Height: 1080},
		},
		Verified: true,
	}
}

func tripAdvisorFixture() *types.TripAdvisorDetails {
	return &types.TripAdvisorDetails{
		LocationID:  "ta-456",
		Name:        "Senso-ji",
		Description: "Tokyo's oldest temple, completed in 645.",
		Latitude:    "35.714764",
		Longitude:   "139.796655",
		Address: &types.TripAdvisorAddress{
			Street1:       "2-3-1 Asakusa",
			City:          "Taito",
			State:         "Tokyo",
			Country:       "Japan",
			AddressString: "2-3-1 Asakusa, Taito 111-0032 Tokyo Prefecture",
		},
		Rating:       float64Ptr(4.6),
		NumReviews:   14230,
		PriceLevel:   "$$",
		CategoryName: "Religious Sites",
		PhotoURL:     "https://media-cdn.tripadvisor.com/media/photo-o/sensoji.jpg",
		PhotoWidth:   2048,
		PhotoHeight:  1365,
	}
}

func TestMergePlaceDetails_Deterministic(t *testing.T) {
	query := types.POIQuery{Name: "Sensoji Temple", City: "Tokyo", Country: "Japan"}

	first := MergePlaceDetails(query, foursquareFixture(), tripAdvisorFixture())
	second := MergePlaceDetails(query, foursquareFixture(), tripAdvisorFixture())

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestMergePlaceDetails_FieldPrecedence(t *testing.T) {
	query := types.POIQuery{Name: "Sensoji Temple", City: "Tokyo", Country: "Japan"}
	merged := MergePlaceDetails(query, foursquareFixture(), tripAdvisorFixture())

	// name and coordinates come from Foursquare
	assert.Equal(t, "Sensoji Temple", merged.Name)
	require.NotNil(t, merged.Coordinates)
	assert.InDelta(t, 35.7148, merged.Coordinates.Lat, 1e-9)
	assert.InDelta(t, 139.7967, merged.Coordinates.Lng, 1e-9)

	// description only comes from TripAdvisor
	assert.Equal(t, "Tokyo's oldest temple, completed in 645.", merged.Description)

	// structured address prefers Foursquare
	assert.Equal(t, "2-3-1 Asakusa, Taito, Tokyo", merged.Address.Formatted)
	assert.Equal(t, "Tokyo", merged.Address.City)

	// contact is Foursquare-only
	assert.Equal(t, "+81 3-3842-0181", merged.Contact.Phone)
	assert.Equal(t, "https://www.senso-ji.jp", merged.Contact.Website)

	// categories take all Foursquare names
	assert.Equal(t, []string{"Buddhist Temple", "Landmark"}, merged.Categories)

	// numeric price beats the symbolic scale
	assert.Equal(t, 1, merged.PriceLevel)

	// hours carry openNow from Foursquare
	require.NotNil(t, merged.Hours)
	require.NotNil(t, merged.Hours.OpenNow)
	assert.True(t, *merged.Hours.OpenNow)
	assert.Equal(t, "Asia/Tokyo", merged.Hours.Timezone)

	// Foursquare photos first, then TripAdvisor's single large photo
	require.Len(t, merged.Photos, 2)
	assert.Equal(t, "foursquare", merged.Photos[0].Source)
	assert.Equal(t, "tripadvisor", merged.Photos[1].Source)

	assert.True(t, merged.Verified)
	assert.Equal(t, types.EnrichmentSuccess, merged.Status)
}

func TestMergePlaceDetails_RatingAveraging(t *testing.T) {
	query := types.POIQuery{Name: "Le Jules Verne", City: "Paris", Country: "France"}
	fsq := foursquareFixture()
	fsq.Rating = float64Ptr(4.2)
	ta := tripAdvisorFixture()
	ta.Rating = float64Ptr(4.7)

	merged := MergePlaceDetails(query, fsq, ta)

	require.NotNil(t, merged.Rating.Foursquare)
	require.NotNil(t, merged.Rating.TripAdvisor)
	require.NotNil(t, merged.Rating.Average)
	assert.InDelta(t, 4.2, *merged.Rating.Foursquare, 1e-9)
	assert.InDelta(t, 4.7, *merged.Rating.TripAdvisor, 1e-9)
	assert.InDelta(t, 4.45, *merged.Rating.Average, 1e-9)
	assert.Equal(t, 14230, merged.Rating.TotalReviews)
}

func TestMergePlaceDetails_FoursquareOnly(t *testing.T) {
	query := types.POIQuery{Name: "Sensoji Temple", City: "Tokyo", Country: "Japan"}
	merged := MergePlaceDetails(query, foursquareFixture(), nil)

	assert.Equal(t, "Sensoji Temple", merged.Name)
	require.NotNil(t, merged.Coordinates)
	assert.Empty(t, merged.Description)
	assert.Nil(t, merged.Rating.TripAdvisor)
	require.NotNil(t, merged.Rating.Average)
	assert.InDelta(t, 4.5, *merged.Rating.Average, 1e-9)
	assert.Equal(t, 0, merged.Rating.TotalReviews)
	require.Len(t, merged.Photos, 1)
}

func TestMergePlaceDetails_TripAdvisorOnly(t *testing.T) {
	query := types.POIQuery{Name: "Sensoji Temple", City: "Tokyo", Country: "Japan"}
	merged := MergePlaceDetails(query, nil, tripAdvisorFixture())

	// name falls back to TripAdvisor, coordinates parse from its strings
	assert.Equal(t, "Senso-ji", merged.Name)
	require.NotNil(t, merged.Coordinates)
	assert.InDelta(t, 35.714764, merged.Coordinates.Lat, 1e-9)
	assert.InDelta(t, 139.796655, merged.Coordinates.Lng, 1e-9)

	// address falls back to the TripAdvisor structured shape
	assert.Equal(t, "2-3-1 Asakusa, Taito 111-0032 Tokyo Prefecture", merged.Address.Formatted)

	// symbolic price maps onto the numeric scale
	assert.Equal(t, 2, merged.PriceLevel)

	// single category name, textual hours placeholder with openNow unknown
	assert.Equal(t, []string{"Religious Sites"}, merged.Categories)
	require.NotNil(t, merged.Hours)
	assert.Nil(t, merged.Hours.OpenNow)

	// no contact without Foursquare, not verified
	assert.Empty(t, merged.Contact.Phone)
	assert.False(t, merged.Verified)
}

func TestMergePlaceDetails_NameFallsBackToQuery(t *testing.T) {
	query := types.POIQuery{Name: "Hidden Ramen Bar", City: "Osaka", Country: "Japan"}
	ta := tripAdvisorFixture()
	ta.Name = ""

	merged := MergePlaceDetails(query, nil, ta)
	assert.Equal(t, "Hidden Ramen Bar", merged.Name)
}

func TestMergePlaceDetails_HoursPlaceholderWithoutLocationID(t *testing.T) {
	query := types.POIQuery{Name: "Sensoji Temple", City: "Tokyo", Country: "Japan"}
	ta := tripAdvisorFixture()
	ta.LocationID = ""

	// The placeholder depends on having a TripAdvisor record at all, not on
	// any particular field of it being populated.
	merged := MergePlaceDetails(query, nil, ta)
	require.NotNil(t, merged.Hours)
	assert.Nil(t, merged.Hours.OpenNow)
	assert.NotEmpty(t, merged.Hours.Formatted)
}

func TestMergePlaceDetails_UnparseableTripAdvisorCoordinates(t *testing.T) {
	query := types.POIQuery{Name: "Sensoji Temple", City: "Tokyo", Country: "Japan"}
	ta := tripAdvisorFixture()
	ta.Latitude = "n/a"

	merged := MergePlaceDetails(query, nil, ta)
	assert.Nil(t, merged.Coordinates)
}

func TestBasicFallback(t *testing.T) {
	query := types.POIQuery{Name: "Mystery Cafe", City: "Lisbon", Country: "Portugal"}
	fallback := BasicFallback(query)

	assert.Equal(t, "Mystery Cafe", fallback.Name)
	assert.Equal(t, "Lisbon, Portugal", fallback.Address.Formatted)
	assert.Equal(t, types.EnrichmentBasicFallback, fallback.Status)
	assert.False(t, fallback.Verified)
	assert.Nil(t, fallback.Coordinates)
	assert.Empty(t, fallback.Description)
	assert.Empty(t, fallback.Categories)
	assert.Empty(t, fallback.Photos)
}

func TestBasicFallback_PartialLocation(t *testing.T) {
	fallback := BasicFallback(types.POIQuery{Name: "Somewhere", City: "Porto"})
	assert.Equal(t, "Porto", fallback.Address.Formatted)

	fallback = BasicFallback(types.POIQuery{Name: "Somewhere", Country: "Portugal"})
	assert.Equal(t, "Portugal", fallback.Address.Formatted)
}

// End-to-end shape of the Sensoji scenario: coordinates from provider A,
// description from provider B, averaged rating across both.
func TestMergePlaceDetails_SensojiScenario(t *testing.T) {
	query := types.POIQuery{Name: "Sensoji Temple", City: "Tokyo", Country: "Japan"}
	fsq := foursquareFixture()
	fsq.Rating = float64Ptr(4.5)
	ta := tripAdvisorFixture()
	ta.Rating = float64Ptr(4.6)

	merged := MergePlaceDetails(query, fsq, ta)

	require.NotNil(t, merged.Coordinates)
	assert.InDelta(t, 35.7148, merged.Coordinates.Lat, 1e-4)
	assert.InDelta(t, 139.7967, merged.Coordinates.Lng, 1e-4)
	require.NotNil(t, merged.Rating.Average)
	assert.InDelta(t, 4.55, *merged.Rating.Average, 1e-9)
	assert.NotEmpty(t, merged.Description)
}
