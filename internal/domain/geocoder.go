package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
// A zero FormattedAddress means the provider found nothing.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
}

// Found reports whether the provider matched the query.
func (r GeocodingResult) Found() bool {
	return r.FormattedAddress != ""
}

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	// Geocode returns an empty result when nothing matches and an error only
	// when the provider could not be queried.
	Geocode(ctx context.Context, query string) (GeocodingResult, error)
}
