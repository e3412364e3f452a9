package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	defaultDBPath            = "./dev.db"
	defaultPort              = "8080"
	defaultHourlyRate        = 8000.0
	defaultRoundingUnit      = 1000
	defaultLogLevel          = "info"
	defaultDBConnectAttempts = 5
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env               string
	AdminEmail        string
	AdminPassword     string
	SessionSecret     string
	DBPath            string
	Port              string
	LogLevel          string
	DBConnectAttempts int

	// DefaultHourlyRate and RoundingUnit seed the company settings row on first start.
	DefaultHourlyRate float64
	RoundingUnit      int64
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: production injects real env vars and has no .env file.
	if err := loadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	cfg := Config{
		Env:               os.Getenv("APP_ENV"),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		DBPath:            getEnv("DB_PATH", defaultDBPath),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          getEnv("LOG_LEVEL", defaultLogLevel),
		DBConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", defaultDBConnectAttempts),
		DefaultHourlyRate: getEnvFloat("DEFAULT_HOURLY_RATE", defaultHourlyRate),
		RoundingUnit:      int64(getEnvInt("ROUNDING_UNIT", defaultRoundingUnit)),
	}

	if cfg.RoundingUnit <= 0 {
		log.Warn().Int64("rounding_unit", cfg.RoundingUnit).Msg("ROUNDING_UNIT must be positive, using default")
		cfg.RoundingUnit = defaultRoundingUnit
	}

	if cfg.AdminEmail == "" {
		log.Warn().Msg("ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Warn().Msg("ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		log.Warn().Msg("SESSION_SECRET is not set")
	}

	return cfg
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "", "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid integer, using default")
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid number, using default")
		return fallback
	}
	return v
}
