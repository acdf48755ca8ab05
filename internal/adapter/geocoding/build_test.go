package geocoding

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/anaemia-predictor/internal/config"
	"github.com/couchcryptid/anaemia-predictor/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(provider string) *config.Config {
	return &config.Config{
		Geocoder:           provider,
		NominatimURL:       "http://nominatim.invalid",
		NominatimUserAgent: "anemia_app_test",
		MapboxToken:        "pk.test",
		GeocodeTimeout:     time.Second,
		GeocodeCacheSize:   10,
		GeocodeCacheTTL:    time.Hour,
		GeocodeRateLimit:   1,
	}
}

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("none", func(t *testing.T) {
		metrics := observability.NewMetricsForTesting()
		g, err := New(testConfig(config.GeocoderNone), logger, metrics)
		require.NoError(t, err)
		assert.Nil(t, g)
		assert.InDelta(t, 0, testutil.ToFloat64(metrics.GeocodeEnabled), 0)
	})

	for _, provider := range []string{config.GeocoderNominatim, config.GeocoderMapbox} {
		t.Run(provider, func(t *testing.T) {
			metrics := observability.NewMetricsForTesting()
			g, err := New(testConfig(provider), logger, metrics)
			require.NoError(t, err)
			assert.IsType(t, &CachedGeocoder{}, g)
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeEnabled), 0)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := New(testConfig("google"), logger, observability.NewMetricsForTesting())
		require.Error(t, err)
	})
}
