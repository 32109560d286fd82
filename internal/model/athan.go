package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PrayerOrder is the order the five daily prayers are shown in.
var PrayerOrder = []string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"}

type Prayer struct {
	Name string `json:"name"` // “Fajr”, “Dhuhr”, …
	Time string `json:"time"` // “17:30”, 24h clock in the user's timezone
}

// Clock12 converts the 24h time into a 12h clock and its period,
// "17:30" → ("05:30", "PM").
func (p Prayer) Clock12() (string, string, error) {
	parts := strings.SplitN(p.Time, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed prayer time %q", p.Time)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return "", "", fmt.Errorf("malformed prayer hour %q", p.Time)
	}
	m := parts[1]
	if len(m) > 2 {
		m = m[:2]
	}
	period := "AM"
	if h >= 12 {
		period = "PM"
		if h > 12 {
			h -= 12
		}
	}
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%s", h, m), period, nil
}

// At resolves the prayer time on the given day in loc.
func (p Prayer) At(day time.Time, loc *time.Location) (time.Time, error) {
	parts := strings.SplitN(p.Time, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("malformed prayer time %q", p.Time)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed prayer hour %q", p.Time)
	}
	mm := parts[1]
	if len(mm) > 2 {
		mm = mm[:2]
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed prayer minute %q", p.Time)
	}
	y, mo, d := day.In(loc).Date()
	return time.Date(y, mo, d, h, m, 0, 0, loc), nil
}

type PrayerTimes struct {
	Date     string   `json:"date"` // “2025-08-05”
	City     string   `json:"city"`
	Timezone string   `json:"timezone"`
	Prayers  []Prayer `json:"prayers"`
}

// PrayerSettings is the calculation profile the backend uses for a user.
type PrayerSettings struct {
	Method        int  `json:"method"` // aladhan calculation method id
	School        int  `json:"school"` // 0 shafi, 1 hanafi
	Notifications bool `json:"notifications"`
	OffsetMinutes int  `json:"offset_minutes"`
}

// DefaultPrayerSettings mirrors the backend default (Muslim World League, shafi).
func DefaultPrayerSettings() PrayerSettings {
	return PrayerSettings{Method: 3, School: 0, Notifications: true}
}
