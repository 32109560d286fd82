package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api/app/packets"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
)

type PrayersController struct {
	now func() time.Time
}

// PrayersModule mounts /prayers and its settings.
func PrayersModule() api.Module {
	ctl := &PrayersController{now: time.Now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/prayers", ctl.getPrayers)
		c.GET("/prayers/next", ctl.getNext)
		c.GET("/prayers/settings", ctl.getSettings)
		c.PUT("/prayers/settings", ctl.updateSettings)
	})
}

// GET /api/app/prayers?date=YYYY-MM-DD
func (p *PrayersController) getPrayers(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	now := p.now()
	day := now
	if raw := ctx.Query("date"); raw != "" {
		d, err := time.ParseInLocation("2006-01-02", raw, s.Geo.Timezone())
		if err != nil {
			return nil, api.BadRequest("date must be YYYY-MM-DD")
		}
		day = d
	}

	times, err := s.Prayers.Load(ctx.Request.Context(), day)
	if err != nil {
		return nil, api.FromError(err, s.Prayers.Snapshot().Error)
	}

	out := packets.PrayersResponse{
		Date:     times.Date,
		City:     times.City,
		Timezone: times.Timezone,
		Prayers:  make([]packets.PrayerResponse, 0, len(times.Prayers)),
		Settings: s.Prayers.Snapshot().Data.Settings,
	}
	for _, pr := range times.Prayers {
		t12, period, err := pr.Clock12()
		if err != nil {
			log.Warn().Err(err).Str("prayer", pr.Name).Msg("[prayers] skipping malformed time")
			continue
		}
		out.Prayers = append(out.Prayers, packets.PrayerResponse{Name: pr.Name, Time: pr.Time, Time12: t12, Period: period})
	}
	out.Next = p.next(s, now)
	return out, nil
}

// GET /api/app/prayers/next
func (p *PrayersController) getNext(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	if s.Prayers.Snapshot().Data.Times == nil {
		if _, err := s.Prayers.Load(ctx.Request.Context(), p.now()); err != nil {
			return nil, api.FromError(err, s.Prayers.Snapshot().Error)
		}
	}
	next := p.next(s, p.now())
	if next == nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "prayer times are not available"}
	}
	return next, nil
}

func (p *PrayersController) next(s *session.Session, now time.Time) *packets.NextPrayerResponse {
	pr, at, ok := s.Prayers.Next(now)
	if !ok {
		return nil
	}
	return &packets.NextPrayerResponse{
		Name:      pr.Name,
		Time:      pr.Time,
		At:        at.Format(time.RFC3339),
		InMinutes: int(at.Sub(now).Minutes()),
	}
}

// GET /api/app/prayers/settings
func (p *PrayersController) getSettings(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	return s.Prayers.Settings(ctx.Request.Context()), nil
}

// PUT /api/app/prayers/settings
func (p *PrayersController) updateSettings(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	var request packets.PrayerSettingsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	settings := model.PrayerSettings{
		Method:        request.Method,
		School:        request.School,
		Notifications: request.Notifications,
		OffsetMinutes: request.OffsetMinutes,
	}
	if err := s.Prayers.UpdateSettings(ctx.Request.Context(), settings); err != nil {
		return nil, api.FromError(err, s.Prayers.Snapshot().Error)
	}
	return settings, nil
}
