package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/islamapp/internal/payments"
	"github.com/Nixie-Tech-LLC/islamapp/internal/session"
)

func main() {
	cfg := LoadEnvironment()

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeKV := InitKV(cfg)
	defer closeKV()
	journal := InitJournal(cfg)
	pub := InitPublisher(cfg)
	defer pub.Close()
	storageSystem := InitStorage(cfg)

	sessions := session.NewManager(store, session.Options{
		BackendURL:  cfg.BackendURL,
		GeoURL:      cfg.GeoURL,
		BotUsername: cfg.BotUsername,
		GeoCacheTTL: cfg.GeoCacheTTL,
		ScanTimeout: cfg.ScanTimeout,
		IdleTTL:     cfg.SessionIdleTTL,
		Poller:      payments.NewPoller(cfg.PaymentPollAttempts, cfg.PaymentPollInterval),
	})
	sessions.OnOpen(sessionHooks(journal, pub))

	scanLimit := middleware.NewPerMinute(cfg.ScanRatePerMinute)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go runSweeper(sweepCtx, cfg.SweepInterval, map[string]sweepFunc{
		"sessions":  sessions.Sweep,
		"ratelimit": scanLimit.Sweep,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg, sessions, journal, storageSystem, scanLimit)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Str("backend", cfg.BackendURL).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
