// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads the given files (".env" when none) into the environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Planner configures cmd/planner.
type Planner struct {
	HTTPAddr         string
	LogLevel         string
	OptimizerURL     string
	OptimizerTimeout time.Duration
	MapCenterLat     float64
	MapCenterLng     float64
	MapZoom          int
}

func LoadPlanner() Planner {
	return Planner{
		HTTPAddr:         getenv("PLANNER_HTTP_ADDR", ":8090"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		OptimizerURL:     getenv("OPTIMIZER_URL", "http://localhost:8080/optimize-route"),
		OptimizerTimeout: parseDurationEnv("OPTIMIZER_TIMEOUT", 30*time.Second),
		MapCenterLat:     parseFloatEnv("MAP_CENTER_LAT", 35.6892),
		MapCenterLng:     parseFloatEnv("MAP_CENTER_LNG", 51.3890),
		MapZoom:          parseIntEnv("MAP_ZOOM", 11),
	}
}

// Optimizer configures cmd/optimizer.
type Optimizer struct {
	HTTPAddr      string
	LogLevel      string
	ORSAPIKey     string
	ORSBaseURL    string
	ORSProfile    string
	ORSTimeout    time.Duration
	RedisAddr     string
	CacheTTL      time.Duration
	NATSURL       string
	EventsSubject string
	ReadRPS       float64
	ReadBurst     float64
	WriteRPS      float64
	WriteBurst    float64
}

var ErrMissingAPIKey = errors.New("ORS_API_KEY is required")

func LoadOptimizer() (Optimizer, error) {
	cfg := Optimizer{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		ORSAPIKey:     os.Getenv("ORS_API_KEY"),
		ORSBaseURL:    getenv("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSProfile:    getenv("ORS_PROFILE", "driving-car"),
		ORSTimeout:    parseDurationEnv("ORS_TIMEOUT", 10*time.Second),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		CacheTTL:      parseDurationEnv("ROUTE_CACHE_TTL", 10*time.Minute),
		NATSURL:       os.Getenv("NATS_URL"),
		EventsSubject: getenv("ROUTE_EVENTS_SUBJECT", "route.events"),
		ReadRPS:       parseFloatEnv("RATE_READ_RPS", 20),
		ReadBurst:     parseFloatEnv("RATE_READ_BURST", 40),
		WriteRPS:      parseFloatEnv("RATE_WRITE_RPS", 2),
		WriteBurst:    parseFloatEnv("RATE_WRITE_BURST", 5),
	}
	if cfg.ORSAPIKey == "" {
		return cfg, ErrMissingAPIKey
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
