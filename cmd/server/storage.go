package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/config"
	"github.com/Nixie-Tech-LLC/islamapp/internal/db"
	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
	"github.com/Nixie-Tech-LLC/islamapp/internal/notify"
	"github.com/Nixie-Tech-LLC/islamapp/internal/redis"
	"github.com/Nixie-Tech-LLC/islamapp/internal/storage"
)

// InitStorage selects and returns the configured image archive
func InitStorage(cfg *config.Config) storage.Storage {
	if cfg.UseSpaces {
		spacesStorage, err := storage.NewSpacesStorage(
			cfg.SpacesEndpoint,
			cfg.SpacesRegion,
			cfg.SpacesBucket,
			cfg.SpacesCDNURL,
			cfg.SpacesAccessKey,
			cfg.SpacesSecretKey,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Spaces storage")
		}
		log.Info().Str("cdn", cfg.SpacesCDNURL).Msg("using DigitalOcean Spaces storage")
		return spacesStorage
	}

	log.Info().Str("dir", cfg.UploadDir).Msg("using local file storage")
	return storage.NewLocalStorage(cfg.UploadDir)
}

// InitKV returns Redis when configured and process memory otherwise.
func InitKV(cfg *config.Config) (kv.Store, func()) {
	if cfg.RedisAddress == "" {
		log.Warn().Msg("REDIS_ADDRESS not set, user state is kept in memory")
		return kv.NewMemory(), func() {}
	}

	store := redis.NewStore(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	log.Info().Str("addr", cfg.RedisAddress).Msg("connected to redis")
	return store, func() { _ = store.Close() }
}

// InitJournal connects the payment journal; nil when DATABASE_URL is empty.
func InitJournal(cfg *config.Config) db.Store {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, payment journal disabled")
		return nil
	}
	ctx := context.Background()
	retry := db.RetryPolicy{Attempts: cfg.DBConnectAttempts, Interval: cfg.DBConnectInterval}
	if err := db.Init(ctx, cfg.DatabaseURL, retry); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	return db.NewStore(db.DB)
}

// InitPublisher connects to the MQTT broker, or drops events without one.
func InitPublisher(cfg *config.Config) notify.Publisher {
	if cfg.MQTTBrokerURL == "" {
		return notify.Nop{}
	}
	pub, err := notify.Connect(cfg.MQTTBrokerURL, "islamapp-gateway")
	if err != nil {
		log.Error().Err(err).Msg("MQTT unavailable, user events disabled")
		return notify.Nop{}
	}
	return pub
}
