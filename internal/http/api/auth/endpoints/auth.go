package endpoints

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api/auth/packets"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
	"github.com/Nixie-Tech-LLC/islamapp/internal/telegram"
)

// SessionOpener creates or reuses the backend session of a Telegram user.
type SessionOpener interface {
	Open(ctx context.Context, init *telegram.InitData) (*session.Session, error)
	Close(userID int64)
}

type Config struct {
	BotToken       string
	JWTSecret      string
	InitDataMaxAge time.Duration
}

// AuthPublicModule mounts POST /auth, which trades Telegram initData for a
// gateway token.
func AuthPublicModule(cfg Config, sessions SessionOpener) api.Module {
	ctl := newAccountManager(cfg, sessions)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth", ctl.openSession)
	})
}

// AuthSessionModule mounts the endpoints of an open session (JWT required).
func AuthSessionModule(cfg Config, sessions SessionOpener) api.Module {
	ctl := newAccountManager(cfg, sessions)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/me", ctl.currentProfile)
		c.POST("/logout", ctl.logout)
	})
}

type AccountManager struct {
	cfg      Config
	sessions SessionOpener
}

func newAccountManager(cfg Config, sessions SessionOpener) *AccountManager {
	return &AccountManager{cfg: cfg, sessions: sessions}
}

// POST /api/app/auth
func (a *AccountManager) openSession(ctx *gin.Context) (any, *api.APIError) {
	var request packets.AuthRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	init, err := telegram.Validate(request.InitData, a.cfg.BotToken, a.cfg.InitDataMaxAge)
	if err != nil {
		log.Warn().Err(err).Msg("[auth] rejected init data")
		msg := "invalid init data"
		if errors.Is(err, telegram.ErrExpired) {
			msg = "init data expired, please reopen the app"
		}
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: msg}
	}

	sess, err := a.sessions.Open(ctx.Request.Context(), init)
	if err != nil {
		return nil, api.FromError(err, "")
	}

	token, err := middleware.GenerateJWT(sess.UserID, a.cfg.JWTSecret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate token"}
	}

	return packets.AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(middleware.TokenTTL).UTC().Format(time.RFC3339),
		User:      sess.User,
		Lang:      sess.Lang,
	}, nil
}

// GET /api/app/me
func (a *AccountManager) currentProfile(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	return packets.AuthResponse{User: s.User, Lang: s.Lang}, nil
}

// POST /api/app/logout
func (a *AccountManager) logout(ctx *gin.Context, s *session.Session) (any, *api.APIError) {
	if err := s.Client.Logout(ctx.Request.Context()); err != nil {
		log.Error().Err(err).Int64("user", s.UserID).Msg("[auth] failed to clear tokens")
	}
	a.sessions.Close(s.UserID)
	return gin.H{"success": true}, nil
}
