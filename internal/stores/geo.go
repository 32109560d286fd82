package stores

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/backend"
	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
)

const (
	ipDataCacheKey = "ipDataCache"
	geoOverrideKey = "geoCoordinates"
)

var ErrNoLocation = errors.New("location unknown")

type coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geo resolves where the user is: device coordinates when the Mini App
// shared them, IP geolocation otherwise. IP lookups are cached for ttl.
type Geo struct {
	*store[*model.GeoData]

	kv     kv.Store
	geoURL string
	ttl    time.Duration
	http   *http.Client
	now    func() time.Time
}

func NewGeo(local kv.Store, geoURL string, ttl time.Duration, hc *http.Client) *Geo {
	return &Geo{
		store:  newStore[*model.GeoData](nil),
		kv:     local,
		geoURL: geoURL,
		ttl:    ttl,
		http:   hc,
		now:    time.Now,
	}
}

// Locate returns the cached location while it is younger than the TTL and
// looks the IP up again otherwise. A failed lookup is not an error when the
// device already shared its coordinates.
func (g *Geo) Locate(ctx context.Context) (*model.GeoData, error) {
	g.startLoading()

	var o coordinates
	device := kv.GetJSON(ctx, g.kv, geoOverrideKey, &o) == nil

	data, err := g.cachedOrFetch(ctx)
	if err != nil {
		if !device {
			g.fail(backend.HumanMessage(err))
			return nil, err
		}
		log.Warn().Err(err).Msg("[geo] ip lookup failed, using device coordinates")
		data = g.staleIPData(ctx)
	}
	if device {
		data.Latitude, data.Longitude = o.Latitude, o.Longitude
	}

	g.update(func(st *State[*model.GeoData]) {
		st.Loading = false
		st.Data = data
	})
	return data, nil
}

func (g *Geo) cachedOrFetch(ctx context.Context) (*model.GeoData, error) {
	var cached model.CachedGeo
	err := kv.GetJSON(ctx, g.kv, ipDataCacheKey, &cached)
	if err == nil && g.now().Sub(cached.CachedAt) < g.ttl {
		d := cached.Data
		return &d, nil
	}
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		log.Warn().Err(err).Msg("[geo] dropping unreadable ip cache")
	}

	data, err := backend.LocateIP(ctx, g.http, g.geoURL)
	if err != nil {
		return nil, err
	}
	entry := model.CachedGeo{Data: *data, CachedAt: g.now()}
	if err := kv.SetJSON(ctx, g.kv, ipDataCacheKey, entry, 0); err != nil {
		log.Error().Err(err).Msg("[geo] failed to cache ip data")
	}
	return data, nil
}

// staleIPData is the last IP lookup regardless of its age, so city and
// timezone survive an outage.
func (g *Geo) staleIPData(ctx context.Context) *model.GeoData {
	var cached model.CachedGeo
	if err := kv.GetJSON(ctx, g.kv, ipDataCacheKey, &cached); err != nil {
		return &model.GeoData{}
	}
	d := cached.Data
	return &d
}

// SetCoordinates records device GPS coordinates; they win over IP data.
func (g *Geo) SetCoordinates(ctx context.Context, lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return errors.New("coordinates out of range")
	}
	if err := kv.SetJSON(ctx, g.kv, geoOverrideKey, coordinates{Latitude: lat, Longitude: lon}, 0); err != nil {
		return err
	}
	g.update(func(st *State[*model.GeoData]) {
		d := model.GeoData{}
		if st.Data != nil {
			d = *st.Data
		}
		d.Latitude, d.Longitude = lat, lon
		st.Data = &d
	})
	return nil
}

// Coordinates returns the best known position, locating the user first
// when nothing is known yet.
func (g *Geo) Coordinates(ctx context.Context) (float64, float64, error) {
	if d := g.Snapshot().Data; d != nil {
		return d.Latitude, d.Longitude, nil
	}
	d, err := g.Locate(ctx)
	if err != nil {
		return 0, 0, errors.Join(ErrNoLocation, err)
	}
	return d.Latitude, d.Longitude, nil
}

// Timezone is the IANA zone of the last known location, UTC if unknown.
func (g *Geo) Timezone() *time.Location {
	if d := g.Snapshot().Data; d != nil && d.Timezone != "" {
		if loc, err := time.LoadLocation(d.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}
