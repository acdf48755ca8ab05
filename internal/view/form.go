package view

import "github.com/couchcryptid/anaemia-predictor/internal/domain"

// How the location section of the form was filled in.
const (
	LocationModeText        = "text"
	LocationModeCoordinates = "coordinates"
)

// FormValues is what the form displays and what a submitted form carries.
type FormValues struct {
	Sex          string
	RedPct       float64
	GreenPct     float64
	BluePct      float64
	Hemoglobin   float64
	LocationMode string
	LocationText string
	Latitude     float64
	Longitude    float64
}

// DefaultFormValues returns the initial form state.
func DefaultFormValues() FormValues {
	d := domain.DefaultSubmission()
	return FormValues{
		Sex:          d.Sex,
		RedPct:       d.RedPct,
		GreenPct:     d.GreenPct,
		BluePct:      d.BluePct,
		Hemoglobin:   d.Hemoglobin,
		LocationMode: LocationModeText,
	}
}

// Submission converts the form into pipeline input. Coordinates are only sent
// in coordinates mode; text is only sent in text mode.
func (f FormValues) Submission() domain.Submission {
	s := domain.Submission{
		Sex:        f.Sex,
		RedPct:     f.RedPct,
		GreenPct:   f.GreenPct,
		BluePct:    f.BluePct,
		Hemoglobin: f.Hemoglobin,
	}
	if f.LocationMode == LocationModeCoordinates {
		lat, lon := f.Latitude, f.Longitude
		s.Latitude, s.Longitude = &lat, &lon
	} else {
		s.LocationText = f.LocationText
	}
	return s
}
