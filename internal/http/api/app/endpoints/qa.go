package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api/app/packets"
	"github.com/Nixie-Tech-LLC/islamapp/internal/model"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
)

// QAModule mounts the question and answer chat.
func QAModule() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/qa", conversation)
		c.POST("/qa/ask", ask)
	})
}

// GET /api/app/qa
func conversation(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	if items := s.QA.Snapshot().Data; items != nil {
		return items, nil
	}
	if items := s.QA.Restore(ctx.Request.Context()); items != nil {
		return items, nil
	}
	return []model.QAAnswer{}, nil
}

// POST /api/app/qa/ask
func ask(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	var request packets.AskRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	lang := request.Lang
	if lang == "" {
		lang = s.Lang
	}
	ans, err := s.QA.Ask(ctx.Request.Context(), request.Question, lang)
	if err != nil {
		return nil, api.FromError(err, s.QA.Snapshot().Error)
	}
	return ans, nil
}
