package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// Location resolution sources.
const (
	LocationSourceNone     = "none"
	LocationSourceExplicit = "explicit"
	LocationSourceForward  = "forward"
	LocationSourceNotFound = "not_found"
	LocationSourceFailed   = "failed"
	LocationSourceDisabled = "disabled"
)

// Warnings shown to the user when a location cannot be resolved.
const (
	WarningLocationNotFound = "Could not find the location. Please check your input."
	WarningGeocodingOff     = "Location lookup is unavailable; continuing without coordinates."
)

// LocationResolution is the outcome of resolving a request's location.
// Coordinates is nil whenever Source is anything but explicit or forward.
type LocationResolution struct {
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	FormattedAddress string       `json:"formatted_address,omitempty"`
	Source           string       `json:"source"`
	Warning          string       `json:"warning,omitempty"`
}

// ResolveLocation turns the request's location into coordinates. It never
// fails: geocoding problems become a warning and the caller carries on
// without coordinates.
func ResolveLocation(ctx context.Context, loc Location, geocoder Geocoder, logger *slog.Logger) LocationResolution {
	if loc.Coordinates != nil {
		c := *loc.Coordinates
		return LocationResolution{Coordinates: &c, Source: LocationSourceExplicit}
	}
	if loc.Text == "" {
		return LocationResolution{Source: LocationSourceNone}
	}
	if geocoder == nil {
		return LocationResolution{Source: LocationSourceDisabled, Warning: WarningGeocodingOff}
	}

	result, err := geocoder.Geocode(ctx, loc.Text)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"location", loc.Text,
			"error", err,
		)
		return LocationResolution{
			Source:  LocationSourceFailed,
			Warning: fmt.Sprintf("Geocoding error: %v", err),
		}
	}
	if !result.Found() {
		return LocationResolution{Source: LocationSourceNotFound, Warning: WarningLocationNotFound}
	}

	coords := Coordinates{Lat: result.Lat, Lon: result.Lon}
	if !coords.InBounds() {
		logger.Warn("geocoder returned out-of-range coordinates",
			"location", loc.Text,
			"lat", result.Lat,
			"lon", result.Lon,
		)
		return LocationResolution{
			Source:  LocationSourceFailed,
			Warning: fmt.Sprintf("Geocoding error: coordinates %s out of range", coords),
		}
	}
	return LocationResolution{
		Coordinates:      &coords,
		FormattedAddress: result.FormattedAddress,
		Source:           LocationSourceForward,
	}
}
