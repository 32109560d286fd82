package stores

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

const prayerSettingsKey = "prayerSettings"

type PrayersBackend interface {
	Prayers(ctx context.Context, q backend.PrayerQuery) (*model.PrayerTimes, error)
	PrayerSettings(ctx context.Context) (*model.PrayerSettings, error)
	SavePrayerSettings(ctx context.Context, s model.PrayerSettings) error
}

// Locator supplies the coordinates prayer times are computed for.
type Locator interface {
	Coordinates(ctx context.Context) (float64, float64, error)
	Timezone() *time.Location
}

type PrayersData struct {
	Times    *model.PrayerTimes   `json:"times"`
	Settings model.PrayerSettings `json:"settings"`
}

type Prayers struct {
	*store[PrayersData]

	backend PrayersBackend
	geo     Locator
	kv      kv.Store
}

func NewPrayers(b PrayersBackend, geo Locator, local kv.Store) *Prayers {
	return &Prayers{
		store:   newStore(PrayersData{Settings: model.DefaultPrayerSettings()}),
		backend: b,
		geo:     geo,
		kv:      local,
	}
}

// Settings returns the persisted settings, falling back to the backend
// copy and then to the defaults.
func (p *Prayers) Settings(ctx context.Context) model.PrayerSettings {
	var s model.PrayerSettings
	if err := kv.GetJSON(ctx, p.kv, prayerSettingsKey, &s); err == nil {
		return s
	}
	remote, err := p.backend.PrayerSettings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("[prayers] using default settings")
		return model.DefaultPrayerSettings()
	}
	if err := kv.SetJSON(ctx, p.kv, prayerSettingsKey, remote, 0); err != nil {
		log.Error().Err(err).Msg("[prayers] failed to persist settings")
	}
	return *remote
}

// Load fetches the prayer times of date for the user's location.
func (p *Prayers) Load(ctx context.Context, date time.Time) (*model.PrayerTimes, error) {
	p.startLoading()

	lat, lon, err := p.geo.Coordinates(ctx)
	if err != nil {
		p.fail("could not determine your location")
		return nil, err
	}
	settings := p.Settings(ctx)

	times, err := p.backend.Prayers(ctx, backend.PrayerQuery{
		Latitude:  lat,
		Longitude: lon,
		Date:      date.In(p.geo.Timezone()).Format("2006-01-02"),
		Settings:  settings,
	})
	if err != nil {
		p.fail(backend.HumanMessage(err))
		return nil, err
	}
	if len(times.Prayers) == 0 {
		err := errors.New("empty prayer schedule")
		p.fail("prayer times are not available for your location")
		return nil, err
	}

	p.update(func(st *State[PrayersData]) {
		st.Loading = false
		st.Data = PrayersData{Times: times, Settings: settings}
	})
	return times, nil
}

// UpdateSettings saves new calculation settings on the backend and locally.
func (p *Prayers) UpdateSettings(ctx context.Context, s model.PrayerSettings) error {
	if err := p.backend.SavePrayerSettings(ctx, s); err != nil {
		p.fail(backend.HumanMessage(err))
		return err
	}
	if err := kv.SetJSON(ctx, p.kv, prayerSettingsKey, s, 0); err != nil {
		return err
	}
	p.update(func(st *State[PrayersData]) {
		st.Error = ""
		st.Data.Settings = s
	})
	return nil
}

// Next returns the first prayer after now. Once Isha has passed it wraps
// to tomorrow's Fajr using today's time as the estimate.
func (p *Prayers) Next(now time.Time) (model.Prayer, time.Time, bool) {
	times := p.Snapshot().Data.Times
	if times == nil {
		return model.Prayer{}, time.Time{}, false
	}
	loc := p.geo.Timezone()
	if times.Timezone != "" {
		if l, err := time.LoadLocation(times.Timezone); err == nil {
			loc = l
		}
	}

	var first *model.Prayer
	var firstAt time.Time
	for i := range times.Prayers {
		pr := times.Prayers[i]
		if pr.Name == "Sunrise" {
			continue
		}
		at, err := pr.At(now, loc)
		if err != nil {
			continue
		}
		if first == nil {
			first, firstAt = &times.Prayers[i], at
		}
		if at.After(now) {
			return pr, at, true
		}
	}
	if first == nil {
		return model.Prayer{}, time.Time{}, false
	}
	return *first, firstAt.AddDate(0, 0, 1), true
}
