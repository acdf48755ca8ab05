package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Geocoder providers selectable through GEOCODER.
const (
	GeocoderNominatim = "nominatim"
	GeocoderMapbox    = "mapbox"
	GeocoderNone      = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	ModelPath    string
	DefaultTheme string

	// Geocoding configuration.
	Geocoder           string
	NominatimURL       string
	NominatimUserAgent string
	MapboxToken        string
	GeocodeTimeout     time.Duration
	GeocodeCacheSize   int
	GeocodeCacheTTL    time.Duration
	GeocodeRateLimit   float64

	// Prediction events. Publishing is disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string
}

// EventsEnabled reports whether prediction events should be published.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := parsePositiveDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("GEOCODE_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}
	rateLimit, err := parseRateLimit()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if s := os.Getenv("KAFKA_BROKERS"); strings.TrimSpace(s) != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelPath:    sharedcfg.EnvOrDefault("MODEL_PATH", "models/anaemia_model.json"),
		DefaultTheme: strings.ToLower(sharedcfg.EnvOrDefault("DEFAULT_THEME", "light")),

		Geocoder:           strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER", GeocoderNominatim)),
		NominatimURL:       strings.TrimRight(sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"), "/"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "anemia_app"),
		MapboxToken:        os.Getenv("MAPBOX_TOKEN"),
		GeocodeTimeout:     geocodeTimeout,
		GeocodeCacheSize:   parseCacheSize(),
		GeocodeCacheTTL:    cacheTTL,
		GeocodeRateLimit:   rateLimit,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "anaemia-predictions"),
	}

	if cfg.ModelPath == "" {
		return nil, errors.New("MODEL_PATH is required")
	}
	switch cfg.DefaultTheme {
	case "light", "dark":
	default:
		return nil, fmt.Errorf("invalid DEFAULT_THEME %q: want light or dark", cfg.DefaultTheme)
	}
	switch cfg.Geocoder {
	case GeocoderNominatim, GeocoderNone:
	case GeocoderMapbox:
		if cfg.MapboxToken == "" {
			return nil, errors.New("GEOCODER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q: want nominatim, mapbox or none", cfg.Geocoder)
	}
	if cfg.EventsEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseRateLimit() (float64, error) {
	s := sharedcfg.EnvOrDefault("GEOCODE_RATE_LIMIT", "1")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid GEOCODE_RATE_LIMIT %q", s)
	}
	return n, nil
}

func parseCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
