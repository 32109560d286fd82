package model

import "time"

type GeoData struct {
	IP          string  `json:"ip"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
}

// CachedGeo is what lands in the ipDataCache slot.
type CachedGeo struct {
	Data     GeoData   `json:"data"`
	CachedAt time.Time `json:"cached_at"`
}

type AnalyticsEvent struct {
	ID     string            `json:"event_id"`
	Name   string            `json:"event"`
	Params map[string]string `json:"params,omitempty"`
}
