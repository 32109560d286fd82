package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

func (c *Client) Translations(ctx context.Context, lang string) (map[string]string, error) {
	out := map[string]string{}
	if err := c.getJSON(ctx, "/api/v1/translations?lang="+url.QueryEscape(lang), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TrackEvent(ctx context.Context, ev model.AnalyticsEvent) error {
	return c.postJSON(ctx, "/api/v1/analytics/set", ev, nil)
}

// LocateIP asks a public IP geolocation service where the caller is. It does
// not go through the backend, so no auth headers are attached.
func LocateIP(ctx context.Context, hc *http.Client, geoURL string) (*model.GeoData, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: "geolocation unavailable"}
	}
	var out model.GeoData
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("geo decode: %w", err)
	}
	return &out, nil
}
