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

const defaultTripAdvisorBaseURL = "https://api.content.tripadvisor.com/api/v1"

var _ TripAdvisorProvider = (*TripAdvisorClient)(nil)

// TripAdvisorClient talks to the TripAdvisor Content API.
type TripAdvisorClient struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewTripAdvisorClient(baseURL string, timeout time.Duration, logger *slog.Logger) *TripAdvisorClient {
	apiKey := os.Getenv("TRIPADVISOR_API_KEY")
	if apiKey == "" {
		logger.Warn("TRIPADVISOR_API_KEY environment variable is not set")
	}
	if baseURL == "" {
		baseURL = defaultTripAdvisorBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TripAdvisorClient{
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *TripAdvisorClient) Search(ctx context.Context, nameQuery, locationHint, category string) ([]types.TripAdvisorCandidate, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("searchQuery", fmt.Sprintf("%s %s", nameQuery, locationHint))
	params.Set("language", "en")
	if category != "" {
		params.Set("category", category)
	}

	var payload struct {
		Data []types.TripAdvisorCandidate `json:"data"`
	}
	if err := c.get(ctx, "/location/search?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("tripadvisor search failed: %w", err)
	}
	return payload.Data, nil
}

func (c *TripAdvisorClient) GetDetails(ctx context.Context, locationID string) (*types.TripAdvisorDetails, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("language", "en")

	var details types.TripAdvisorDetails
	if err := c.get(ctx, "/location/"+url.PathEscape(locationID)+"/details?"+params.Encode(), &details); err != nil {
		return nil, fmt.Errorf("tripadvisor details failed: %w", err)
	}

	// A single large photo is enough for the merged view; it rides along on
	// the details record so the engine never needs a separate photo call.
	if photo, err := c.largestPhoto(ctx, locationID); err != nil {
		c.logger.DebugContext(ctx, "TripAdvisor photo lookup failed", slog.Any("error", err))
	} else if photo != nil {
		details.PhotoURL = photo.URL
		details.PhotoWidth = photo.Width
		details.PhotoHeight = photo.Height
	}
	return &details, nil
}

func (c *TripAdvisorClient) GetReviews(ctx context.Context, locationID string, limit int) ([]types.TripAdvisorReview, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("language", "en")
	params.Set("limit", fmt.Sprintf("%d", limit))

	var payload struct {
		Data []types.TripAdvisorReview `json:"data"`
	}
	if err := c.get(ctx, "/location/"+url.PathEscape(locationID)+"/reviews?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("tripadvisor reviews failed: %w", err)
	}
	return payload.Data, nil
}

type tripAdvisorPhoto struct {
	URL    string
	Width  int
	Height int
}

func (c *TripAdvisorClient) largestPhoto(ctx context.Context, locationID string) (*tripAdvisorPhoto, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("limit", "1")

	var payload struct {
		Data []struct {
			Images struct {
				Large struct {
					URL    string `json:"url"`
					Width  int    `json:"width"`
					Height int    `json:"height"`
				} `json:"large"`
			} `json:"images"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/location/"+url.PathEscape(locationID)+"/photos?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 || payload.Data[0].Images.Large.URL == "" {
		return nil, nil
	}
	large := payload.Data[0].Images.Large
	return &tripAdvisorPhoto{URL: large.URL, Width: large.Width, Height: large.Height}, nil
}

func (c *TripAdvisorClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
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
