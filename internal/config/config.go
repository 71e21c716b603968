package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env               string
	HTTPPort          string
	DBDriver          string
	DatabaseURL       string
	RedisAddr         string
	JWTIssuer         string
	JWTSigningKey     string
	QueueBackend      string
	CacheBackend      string
	RateLimitPerMin   int
	Timezone          string
	MotivationURL     string
	MotivationSkip    bool
	MotivationTimeout time.Duration
	SnapshotTTL       time.Duration
	CORSOrigins       []string
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file in the working directory is read first;
// variables already set in the environment win.
func Load() App {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not read .env: %v", err)
	}
	return App{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPPort:          getEnv("HTTP_PORT", "8081"),
		DBDriver:          getEnv("DB_DRIVER", "sqlite3"),
		DatabaseURL:       getEnv("DATABASE_URL", "file:attendtrack.db"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		JWTIssuer:         getEnv("JWT_ISSUER", ""),
		JWTSigningKey:     getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		QueueBackend:      getEnv("QUEUE_BACKEND", "memory"),
		CacheBackend:      getEnv("CACHE_BACKEND", "memory"),
		RateLimitPerMin:   intEnv("RATE_LIMIT_PER_MIN", 120),
		Timezone:          getEnv("APP_TIMEZONE", "Local"),
		MotivationURL:     getEnv("MOTIVATION_URL", ""),
		MotivationSkip:    boolEnv("MOTIVATION_SKIP", true),
		MotivationTimeout: durationEnv("MOTIVATION_TIMEOUT", 10*time.Second),
		SnapshotTTL:       durationEnv("SNAPSHOT_TTL", time.Hour),
		CORSOrigins:       listEnv("CORS_ORIGINS", []string{"http://localhost:5173"}),
	}
}

// Location resolves Timezone, falling back to the process local zone.
func (a App) Location() *time.Location {
	if a.Timezone == "" || a.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		log.Printf("invalid APP_TIMEZONE %q: %v, using local time", a.Timezone, err)
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if val == "1" || val == "true" || val == "TRUE" {
			return true
		}
		if val == "0" || val == "false" || val == "FALSE" {
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
