package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"campusmarket/internal/domain/entity"
	"campusmarket/pkg/errors"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Client resolves free-text addresses against the Google Maps Geocoding
// API. It is an external collaborator: a thin lookup with no domain
// logic of its own.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    http.DefaultClient,
	}
}

func (c *Client) Geocode(ctx context.Context, address string) (entity.GeoPoint, error) {
	endpoint := fmt.Sprintf("%s?address=%s&key=%s", c.baseURL, url.QueryEscape(address), c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return entity.GeoPoint{}, errors.Internal("Failed to build geocode request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return entity.GeoPoint{}, errors.Internal("Geocode request failed", err)
	}
	defer resp.Body.Close()

	var result struct {
		Status  string `json:"status"`
		Results []struct {
			FormattedAddress string `json:"formatted_address"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return entity.GeoPoint{}, errors.Internal("Failed to parse geocode response", err)
	}

	if result.Status != "OK" || len(result.Results) == 0 {
		return entity.GeoPoint{}, errors.Validation("Could not find coordinates for the address provided", nil)
	}

	best := result.Results[0]
	return entity.GeoPoint{
		Longitude: best.Geometry.Location.Lng,
		Latitude:  best.Geometry.Location.Lat,
		Address:   best.FormattedAddress,
	}, nil
}
