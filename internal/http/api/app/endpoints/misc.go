package endpoints

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/dateformat"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api/app/packets"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
)

// TranslationsModule mounts GET /translations/:lang.
func TranslationsModule() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/translations/:lang", translations)
	})
}

// GET /api/app/translations/:lang
func translations(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	dict, err := s.Translations.Load(ctx.Request.Context(), ctx.Param("lang"))
	if err != nil {
		return nil, api.FromError(err, s.Translations.Snapshot().Error)
	}
	return packets.TranslationsResponse{Lang: s.Translations.Language(), Strings: dict}, nil
}

// AnalyticsModule mounts POST /analytics. Events are forwarded to the
// backend without waiting for the answer.
func AnalyticsModule() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/analytics", trackEvent)
	})
}

// POST /api/app/analytics
func trackEvent(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	var request packets.AnalyticsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	ev := model.AnalyticsEvent{ID: uuid.NewString(), Name: request.Event, Params: request.Params}

	go func() {
		c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Client.TrackEvent(c, ev); err != nil {
			log.Warn().Err(err).Str("event", ev.Name).Msg("[analytics] failed to forward event")
		}
	}()
	return packets.AnalyticsResponse{EventID: ev.ID}, nil
}

type DateController struct {
	now func() time.Time
}

// DateModule mounts GET /date, which renders a date with a display template.
func DateModule() api.Module {
	ctl := &DateController{now: time.Now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/date", ctl.format)
	})
}

// GET /api/app/date?format=&date=RFC3339
func (d *DateController) format(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	t := d.now().In(s.Geo.Timezone())
	if raw := ctx.Query("date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, api.BadRequest("date must be RFC3339")
		}
		t = parsed
	}

	tmpl := ctx.DefaultQuery("format", dateformat.DotDMY)
	value, err := dateformat.Format(t, tmpl)
	if errors.Is(err, dateformat.ErrUnknownTemplate) {
		return nil, api.BadRequest(err.Error())
	}
	return packets.DateResponse{Format: tmpl, Value: value, Templates: dateformat.Templates()}, nil
}

// PaymentJournal lists the payments the gateway has seen for a user.
type PaymentJournal interface {
	ListPayments(ctx context.Context, userID int64) ([]model.PaymentRecord, error)
}

// PaymentsModule mounts GET /payments. A nil journal yields an empty list.
func PaymentsModule(journal PaymentJournal) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/payments", func(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
			if journal == nil {
				return []model.PaymentRecord{}, nil
			}
			records, err := journal.ListPayments(ctx.Request.Context(), s.UserID)
			if err != nil {
				log.Error().Err(err).Int64("user", s.UserID).Msg("[payments] failed to list journal")
				return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load payments"}
			}
			return records, nil
		})
	})
}
