// Package config loads the server configuration from flags with environment
// fallback.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config represents the server configuration.
type Config struct {
	Port        int
	DatabaseURL string
	RedisAddr   string
	RateLimit   int64
	RateWindow  time.Duration
	Debug       bool
}

// Default returns the default server configuration.
func Default() Config {
	return Config{
		Port:        8080,
		DatabaseURL: "postgres://localhost:5432/sandstone?sslmode=disable",
		RateLimit:   120,
		RateWindow:  time.Minute,
	}
}

// Load parses command line flags, falling back to environment variables and
// then to the defaults.
func Load(args []string) (Config, error) {
	defaults := Default()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	port := fs.Int("port", envInt("PORT", defaults.Port), "HTTP server port")
	databaseURL := fs.String("database", envString("DATABASE_URL", defaults.DatabaseURL), "PostgreSQL connection URL")
	redisAddr := fs.String("redis", envString("REDIS_ADDR", ""), "Redis address for rate limiting (empty disables)")
	rateLimit := fs.Int64("rate-limit", int64(envInt("RATE_LIMIT", int(defaults.RateLimit))), "Mutations allowed per principal per window")
	debug := fs.Bool("debug", envBool("DEBUG"), "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return Config{
		Port:        *port,
		DatabaseURL: *databaseURL,
		RedisAddr:   *redisAddr,
		RateLimit:   *rateLimit,
		RateWindow:  defaults.RateWindow,
		Debug:       *debug,
	}, nil
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string) bool {
	value, _ := strconv.ParseBool(os.Getenv(key))
	return value
}
