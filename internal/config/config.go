package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const devSessionSecret = "dev-session-secret-change-in-production"

// ErrDefaultSecret is returned when production runs with the development session secret.
var ErrDefaultSecret = errors.New("SESSION_SECRET must be set in production environment")

type Config struct {
	Port string
	Env  string

	APIBaseURL string
	APITimeout time.Duration
	APIDebug   bool

	SessionSecret string
	SessionTTL    time.Duration
	SessionStore  string
	TokenSecret   string
	CookieSecure  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRPS   float64
	RateLimitBurst int
}

// Production reports whether the portal runs with production settings.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads the configuration from the environment. Callers load .env first.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:5000/api/v1"),
		SessionSecret: getEnv("SESSION_SECRET", devSessionSecret),
		SessionStore:  getEnv("SESSION_STORE", "memory"),
		TokenSecret:   os.Getenv("TOKEN_SECRET"),
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	var err error
	if cfg.APITimeout, err = getDuration("API_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.APIDebug, err = getBool("API_DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", cfg.Production()); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 5); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 10); err != nil {
		return Config{}, err
	}

	switch cfg.SessionStore {
	case "memory", "redis":
	default:
		return Config{}, fmt.Errorf("SESSION_STORE: unknown store %q", cfg.SessionStore)
	}

	if cfg.Production() && cfg.SessionSecret == devSessionSecret {
		return Config{}, ErrDefaultSecret
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
