package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string

	// DataDir is where the preference store keeps its files. Empty keeps
	// everything in memory.
	DataDir string

	// Open-Meteo endpoints. Overridable for tests and mirrors.
	GeocodingURL string
	ForecastURL  string

	// GeocoderAPIKey enables reverse geocoding; empty disables it.
	GeocoderAPIKey string

	HTTPTimeout time.Duration

	// WeatherCacheTTL controls how long a fetched forecast is served
	// without revalidation.
	WeatherCacheTTL time.Duration

	// RefreshInterval controls how often favorite forecasts are re-fetched.
	RefreshInterval time.Duration

	// SearchDebounce is the quiet period before an autocomplete query fires.
	SearchDebounce time.Duration

	// CacheGeneration tags the offline cache; bumping it invalidates every
	// previously cached response at activation.
	CacheGeneration string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.DataDir = getenvDefault("DATA_DIR", "data")
	cfg.GeocodingURL = os.Getenv("GEOCODING_URL")
	cfg.ForecastURL = os.Getenv("FORECAST_URL")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.CacheGeneration = getenvDefault("CACHE_GENERATION", "meteo-aura-v1")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.WeatherCacheTTL, err = getenvDuration("WEATHER_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SearchDebounce, err = getenvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
