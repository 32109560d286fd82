package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api/app/packets"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
)

// GeoModule mounts the location endpoints.
func GeoModule() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/geo", locate)
		c.POST("/geo/coordinates", setCoordinates)
	})
}

// GET /api/app/geo
func locate(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	data, err := s.Geo.Locate(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err, s.Geo.Snapshot().Error)
	}
	return data, nil
}

// POST /api/app/geo/coordinates
func setCoordinates(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	var request packets.CoordinatesRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if err := s.Geo.SetCoordinates(ctx.Request.Context(), *request.Latitude, *request.Longitude); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	return s.Geo.Snapshot().Data, nil
}
