// Package dateformat renders dates with the display templates used across the app.
package dateformat

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownTemplate = errors.New("dateformat: unknown template")

const (
	DotDMY      = "DD.MM.YYYY"
	SlashDMY    = "DD/MM/YYYY"
	SlashMDY    = "MM/DD/YYYY"
	ISO         = "YYYY-MM-DD"
	LongDMY     = "DD MMMM YYYY"
	LongMDY     = "MMMM D, YYYY"
	ShortDM     = "D MMM"
	Clock       = "HH:mm"
	WeekdayLong = "dddd, D MMMM"
)

// layouts maps each template onto its Go reference layout.
var layouts = map[string]string{
	DotDMY:      "02.01.2006",
	SlashDMY:    "02/01/2006",
	SlashMDY:    "01/02/2006",
	ISO:         "2006-01-02",
	LongDMY:     "02 January 2006",
	LongMDY:     "January 2, 2006",
	ShortDM:     "2 Jan",
	Clock:       "15:04",
	WeekdayLong: "Monday, 2 January",
}

var order = []string{DotDMY, SlashDMY, SlashMDY, ISO, LongDMY, LongMDY, ShortDM, Clock, WeekdayLong}

// Format renders t using one of the supported templates.
func Format(t time.Time, template string) (string, error) {
	layout, ok := layouts[template]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, template)
	}
	return t.Format(layout), nil
}

// Templates lists the supported templates in display order.
func Templates() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}
