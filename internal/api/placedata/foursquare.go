package placedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

const defaultFoursquareBaseURL = "https://api.foursquare.com/v3"

var _ FoursquareProvider = (*FoursquareClient)(nil)

// FoursquareClient talks to the Foursquare Places API. Responses are decoded
// straight into the raw detail shape the cache stores.
type FoursquareClient struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewFoursquareClient(baseURL string, timeout time.Duration, logger *slog.Logger) *FoursquareClient {
	apiKey := os.Getenv("FOURSQUARE_API_KEY")
	if apiKey == "" {
		logger.Warn("FOURSQUARE_API_KEY environment variable is not set")
	}
	if baseURL == "" {
		baseURL = defaultFoursquareBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FoursquareClient{
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *FoursquareClient) Search(ctx context.Context, nameQuery, locationHint, category string) ([]types.FoursquareCandidate, error) {
	params := url.Values{}
	params.Set("query", nameQuery)
	params.Set("near", locationHint)
	params.Set("limit", "5")
	if category != "" {
		params.Set("categories", category)
	}

	var payload struct {
		Results []types.FoursquareCandidate `json:"results"`
	}
	if err := c.get(ctx, "/places/search?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("foursquare search failed: %w", err)
	}
	return payload.Results, nil
}

func (c *FoursquareClient) GetDetails(ctx context.Context, fsqID string) (*types.FoursquareDetails, error) {
	params := url.Values{}
	params.Set("fields", "fsq_id,name,geocodes,location,categories,tel,website,email,rating,price,hours,photos,verified")

	var details types.FoursquareDetails
	if err := c.get(ctx, "/places/"+url.PathEscape(fsqID)+"?"+params.Encode(), &details); err != nil {
		return nil, fmt.Errorf("foursquare details failed: %w", err)
	}
	// Foursquare rates on a 0..10 scale; the engine works in 0..5.
	if details.Rating != nil {
		half := *details.Rating / 2
		details.Rating = &half
	}
	return &details, nil
}

func (c *FoursquareClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
