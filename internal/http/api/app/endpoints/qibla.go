package endpoints

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api/app/packets"
	"github.com/Nixie-Tech-LLC/islamapp/internal/qibla"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
)

// QiblaModule mounts GET /qibla.
func QiblaModule() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/qibla", getQibla)
	})
}

func floatQuery(ctx *gin.Context, key string) (*float64, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%s is not finite", key)
	}
	return &v, nil
}

// GET /api/app/qibla?platform=ios|android&heading=&alpha=
func getQibla(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	lat, lon, err := s.Geo.Coordinates(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err, "could not determine your location")
	}

	out := packets.QiblaResponse{
		Latitude:  lat,
		Longitude: lon,
		Bearing:   qibla.Bearing(lat, lon),
		Distance:  qibla.Distance(lat, lon),
	}

	o := qibla.Orientation{Platform: qibla.Platform(ctx.DefaultQuery("platform", string(qibla.PlatformAndroid)))}
	if o.WebkitCompassHeading, err = floatQuery(ctx, "heading"); err != nil {
		return nil, api.BadRequest("heading must be a number")
	}
	if o.Alpha, err = floatQuery(ctx, "alpha"); err != nil {
		return nil, api.BadRequest("alpha must be a number")
	}
	if heading, ok := qibla.Heading(o); ok {
		rotation := qibla.Rotation(out.Bearing, heading)
		out.Heading, out.Rotation = &heading, &rotation
	}
	return out, nil
}
