package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const DefaultBackendURL = "https://islamapp.myfavouritegames.org"

// Config holds environment-based settings
type Config struct {
	Environment   string
	ServerAddress string
	BackendURL    string
	GeoURL        string
	BotToken      string
	BotUsername   string
	JWTSecret     string

	ScanTimeout         time.Duration
	ScanRatePerMinute   int
	PaymentPollAttempts int
	PaymentPollInterval time.Duration
	GeoCacheTTL         time.Duration
	InitDataMaxAge      time.Duration
	SessionIdleTTL      time.Duration
	SweepInterval       time.Duration

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	DatabaseURL       string
	MigrationsPath    string
	DBConnectAttempts int
	DBConnectInterval time.Duration

	MQTTBrokerURL string

	UseSpaces       bool
	UploadDir       string
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	bot := os.Getenv("BOT_TOKEN")
	if bot == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	jwt := os.Getenv("JWT_SECRET")
	if jwt == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Environment:   getenv("APP_ENV", "production"),
		ServerAddress: getenv("SERVER_ADDRESS", ":8080"),
		BackendURL:    getenv("BACKEND_URL", DefaultBackendURL),
		GeoURL:        getenv("GEO_URL", "https://ipapi.co/json/"),
		BotToken:      bot,
		BotUsername:   getenv("BOT_USERNAME", "islamapp_bot"),
		JWTSecret:     jwt,

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "./migrations"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),

		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		UploadDir:       getenv("UPLOAD_DIR", "./uploads"),
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),
	}

	var err error
	if cfg.ScanTimeout, err = durationEnv("SCAN_TIMEOUT", 12*time.Second); err != nil {
		return nil, err
	}
	if cfg.PaymentPollInterval, err = durationEnv("PAYMENT_POLL_INTERVAL", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeoCacheTTL, err = durationEnv("GEO_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.InitDataMaxAge, err = durationEnv("INIT_DATA_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = durationEnv("SESSION_IDLE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = durationEnv("SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DBConnectInterval, err = durationEnv("DB_CONNECT_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.DBConnectAttempts, err = intEnv("DB_CONNECT_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	if cfg.PaymentPollAttempts, err = intEnv("PAYMENT_POLL_ATTEMPTS", 20); err != nil {
		return nil, err
	}
	if cfg.ScanRatePerMinute, err = intEnv("SCAN_RATE_PER_MINUTE", 10); err != nil {
		return nil, err
	}

	if cfg.UseSpaces && (cfg.SpacesBucket == "" || cfg.SpacesEndpoint == "") {
		return nil, fmt.Errorf("SPACES_BUCKET and SPACES_ENDPOINT are required when USE_SPACES=true")
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return n, nil
}
