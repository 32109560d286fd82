package backend

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

type PrayerQuery struct {
	Latitude  float64
	Longitude float64
	Date      string // YYYY-MM-DD
	Settings  model.PrayerSettings
}

func (c *Client) Prayers(ctx context.Context, q PrayerQuery) (*model.PrayerTimes, error) {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(q.Latitude, 'f', 6, 64))
	v.Set("lon", strconv.FormatFloat(q.Longitude, 'f', 6, 64))
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	v.Set("method", strconv.Itoa(q.Settings.Method))
	v.Set("school", strconv.Itoa(q.Settings.School))

	var out model.PrayerTimes
	if err := c.getJSON(ctx, "/api/v1/prayers?"+v.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PrayerSettings(ctx context.Context) (*model.PrayerSettings, error) {
	var out model.PrayerSettings
	if err := c.getJSON(ctx, "/api/v1/prayers/settings", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SavePrayerSettings(ctx context.Context, s model.PrayerSettings) error {
	return c.postJSON(ctx, "/api/v1/prayers/settings", s, nil)
}
