// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string

	// JWT signing secret (required in production).
	JWTSecret string

	// Server
	Debug      bool
	Port       string
	TLSDomains []string

	// Redis – optional. Without it the price job lock is in-process and
	// league standings are not cached.
	RedisURL          string
	StandingsCacheTTL time.Duration

	// Jobs
	EnableScheduler bool
	PriceUpdateHour int
	BotSeed         int64

	// MySQL – used only by cmd/migrate.
	MySQLDSN string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	v := newViper()

	// Defaults
	v.SetDefault("DB_USER", "ciclismo")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "fantasy")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("PORT", ":9000")
	v.SetDefault("TLS_DOMAINS", "ciclismoportugal.pt,www.ciclismoportugal.pt")
	v.SetDefault("DEBUG", false)
	v.SetDefault("STANDINGS_CACHE_TTL", "5m")
	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("PRICE_UPDATE_HOUR", 4)
	v.SetDefault("BOT_SEED", 0)

	cfg := &Config{
		DatabaseURL:       v.GetString("DATABASE_URL"),
		DBUser:            v.GetString("DB_USER"),
		DBPass:            v.GetString("DB_PASS"),
		DBHost:            v.GetString("DB_HOST"),
		DBPort:            v.GetString("DB_PORT"),
		DBName:            v.GetString("DB_NAME"),
		DBSSLMode:         v.GetString("DB_SSLMODE"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		Debug:             v.GetBool("DEBUG"),
		Port:              v.GetString("PORT"),
		TLSDomains:        splitTrimmed(v.GetString("TLS_DOMAINS")),
		RedisURL:          v.GetString("REDIS_URL"),
		StandingsCacheTTL: v.GetDuration("STANDINGS_CACHE_TTL"),
		EnableScheduler:   v.GetBool("ENABLE_SCHEDULER"),
		PriceUpdateHour:   v.GetInt("PRICE_UPDATE_HOUR"),
		BotSeed:           v.GetInt64("BOT_SEED"),
		MySQLDSN:          v.GetString("MYSQL_DSN"),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	return cfg
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

// Validate reports the first missing or out of range setting.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && c.DBPass == "" {
		return fmt.Errorf("config: DATABASE_URL or DB_PASS must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET must be set")
	}
	if c.PriceUpdateHour < 0 || c.PriceUpdateHour > 23 {
		return fmt.Errorf("config: PRICE_UPDATE_HOUR must be between 0 and 23, got %d", c.PriceUpdateHour)
	}
	return nil
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
