package locationiq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
)

var ErrLocationNotFound = fmt.Errorf("location not found")

var domain = "https://us1.locationiq.com"

// Client resolves free-form delivery addresses into coordinates through the
// LocationIQ forward geocoding API.
type Client struct {
	apiKey string
	http   *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		http:   http.DefaultClient,
	}
}

// GetLocation fetches the longitude and latitude for a given address.
func (c *Client) GetLocation(ctx context.Context, address string) (float64, float64, error) {
	ctx = wrap.WithAction(ctx, "locationiq_get_location")

	endpoint := fmt.Sprintf("%s/v1/search?key=%s&q=%s&format=json", domain, c.apiKey, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, wrap.Error(ctx, fmt.Errorf("failed to build LocationIQ request: %w", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return 0, 0, wrap.Error(ctx, fmt.Errorf("failed to make request to LocationIQ: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return 0, 0, wrap.Error(ctx, fmt.Errorf("unexpected response status %d", resp.StatusCode))
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, wrap.Error(ctx, fmt.Errorf("failed to decode data from LocationIQ response: %w", err))
	}

	if len(results) == 0 {
		return 0, 0, wrap.Error(ctx, ErrLocationNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, wrap.Error(ctx, fmt.Errorf("failed to parse latitude: %w", err))
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, wrap.Error(ctx, fmt.Errorf("failed to parse longitude: %w", err))
	}

	return lon, lat, nil
}
