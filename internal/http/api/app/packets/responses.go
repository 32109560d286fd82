package packets

import (
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
	"github.com/Nixie-Tech-LLC/islamapp/internal/payments"
)

type PrayerResponse struct {
	Name   string `json:"name"`
	Time   string `json:"time"`
	Time12 string `json:"time_12h"`
	Period string `json:"period"`
}

type NextPrayerResponse struct {
	Name      string `json:"name"`
	Time      string `json:"time"`
	At        string `json:"at"`
	InMinutes int    `json:"in_minutes"`
}

type PrayersResponse struct {
	Date     string               `json:"date"`
	City     string               `json:"city"`
	Timezone string               `json:"timezone"`
	Prayers  []PrayerResponse     `json:"prayers"`
	Settings model.PrayerSettings `json:"settings"`
	Next     *NextPrayerResponse  `json:"next,omitempty"`
}

type QiblaResponse struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Bearing   float64  `json:"bearing"`
	Distance  float64  `json:"distance_km"`
	Heading   *float64 `json:"heading,omitempty"`
	Rotation  *float64 `json:"rotation,omitempty"`
}

type TonInvoiceResponse struct {
	Invoice     *model.TonInvoice       `json:"invoice"`
	Transaction payments.TonTransaction `json:"transaction"`
}

type TranslationsResponse struct {
	Lang    string            `json:"lang"`
	Strings map[string]string `json:"strings"`
}

type AnalyticsResponse struct {
	EventID string `json:"event_id"`
}

type DateResponse struct {
	Format    string   `json:"format"`
	Value     string   `json:"value"`
	Templates []string `json:"templates"`
}
