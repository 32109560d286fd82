package endpoints

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
)

// FriendsModule mounts the referral program.
func FriendsModule() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/friends", friends)
		c.POST("/friends/:id/claim", claim)
	})
}

// GET /api/app/friends
func friends(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	data, err := s.Friends.Load(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err, s.Friends.Snapshot().Error)
	}
	return data, nil
}

// POST /api/app/friends/:id/claim
func claim(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, api.BadRequest("invalid friend id")
	}
	data, err := s.Friends.Claim(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(err, s.Friends.Snapshot().Error)
	}
	return data, nil
}
