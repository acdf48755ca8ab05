// Package geocoding selects and decorates the configured place-name lookup
// provider.
package geocoding

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/anaemia-predictor/internal/adapter/mapbox"
	"github.com/couchcryptid/anaemia-predictor/internal/adapter/nominatim"
	"github.com/couchcryptid/anaemia-predictor/internal/config"
	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/couchcryptid/anaemia-predictor/internal/observability"
	"github.com/jonboulle/clockwork"
)

// New builds the geocoder named by cfg.Geocoder, wrapped in a TTL cache.
// It returns a nil Geocoder when lookup is turned off; callers treat that as
// "geocoding disabled" rather than an error.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (domain.Geocoder, error) {
	var inner domain.Geocoder
	switch cfg.Geocoder {
	case config.GeocoderNone:
		metrics.GeocodeEnabled.Set(0)
		logger.Info("geocoding disabled")
		return nil, nil
	case config.GeocoderNominatim:
		inner = nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, cfg.GeocodeRateLimit, metrics, logger)
	case config.GeocoderMapbox:
		inner = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, metrics, logger)
	default:
		return nil, fmt.Errorf("unknown geocoder %q", cfg.Geocoder)
	}

	metrics.GeocodeEnabled.Set(1)
	logger.Info("geocoding enabled",
		"provider", cfg.Geocoder,
		"cache_size", cfg.GeocodeCacheSize,
		"cache_ttl", cfg.GeocodeCacheTTL,
	)
	return NewCachedGeocoder(inner, cfg.GeocodeCacheSize, cfg.GeocodeCacheTTL, clockwork.NewRealClock(), metrics), nil
}
