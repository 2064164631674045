// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "NUTRIBOX_"

const devSecret = "dev-secret-change-me"

type Config struct {
	Env       string
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	JWTSecret string
	TokenTTL  time.Duration

	// ArchiveSchedule is a cron expression for the past-lunchbox sweep.
	ArchiveSchedule string

	AllowedOrigins []string

	LoginRateLimit  int
	LoginRateWindow time.Duration

	AdminEmail    string
	AdminPassword string
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads the given .env files (missing files are ignored) and then the
// process environment. Variables already set in the environment win.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Env:             getenv("ENV", "development"),
		Port:            getenv("PORT", "8080"),
		DBPath:          getenv("DB_PATH", "nutribox.db"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "text"),
		JWTSecret:       getenv("JWT_SECRET", ""),
		ArchiveSchedule: getenv("ARCHIVE_SCHEDULE", "@daily"),
		AdminEmail:      getenv("ADMIN_EMAIL", ""),
		AdminPassword:   getenv("ADMIN_PASSWORD", ""),
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateWindow, err = getDuration("LOGIN_RATE_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimit, err = getInt("LOGIN_RATE_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if origins := getenv("ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return Config{}, fmt.Errorf("%sJWT_SECRET is required outside development", envPrefix)
		}
		cfg.JWTSecret = devSecret
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("%sTOKEN_TTL must be positive", envPrefix)
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return Config{}, fmt.Errorf("%sADMIN_EMAIL and %sADMIN_PASSWORD must be set together", envPrefix, envPrefix)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getenv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", envPrefix, key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := getenv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", envPrefix, key, err)
	}
	return n, nil
}
