package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/islamapp/internal/config"
	"github.com/Nixie-Tech-LLC/islamapp/internal/db"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/api"
	appapi "github.com/Nixie-Tech-LLC/islamapp/internal/http/api/app/endpoints"
	authapi "github.com/Nixie-Tech-LLC/islamapp/internal/http/api/auth/endpoints"
	"github.com/Nixie-Tech-LLC/islamapp/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/islamapp/internal/metrics"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
	"github.com/Nixie-Tech-LLC/islamapp/internal/storage"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, sessions *session.Manager, journal db.Store, storageSystem storage.Storage, scanLimit *middleware.RateLimiter) {
	r.Use(metrics.Middleware(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": sessions.Len()})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authCfg := authapi.Config{
		BotToken:       cfg.BotToken,
		JWTSecret:      cfg.JWTSecret,
		InitDataMaxAge: cfg.InitDataMaxAge,
	}

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/app",
		Auth:   false,
	},
		authapi.AuthPublicModule(authCfg, sessions),
	)

	var journalReader appapi.PaymentJournal
	if journal != nil {
		journalReader = journal
	}

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/app",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Sessions:  sessions,
	},
		authapi.AuthSessionModule(authCfg, sessions),
		appapi.GeoModule(),
		appapi.PrayersModule(),
		appapi.QiblaModule(),
		appapi.ScannerModule(storageSystem, scanLimit.Handler()),
		appapi.QAModule(),
		appapi.PremiumModule(),
		appapi.FriendsModule(),
		appapi.TranslationsModule(),
		appapi.AnalyticsModule(),
		appapi.DateModule(),
		appapi.PaymentsModule(journalReader),
	)

	// Static content
	if !cfg.UseSpaces {
		r.Static("/uploads", cfg.UploadDir)
	}
}
