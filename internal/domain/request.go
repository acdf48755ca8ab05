package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is returned when a submission cannot be turned into a
// PredictionRequest even after clamping.
var ErrInvalidInput = errors.New("invalid input")

// Input bounds enforced by clamping.
const (
	MinPixelPct     = 0.0
	MaxPixelPct     = 100.0
	MinHemoglobin   = 0.0
	MaxHemoglobin   = 25.0
	MinLatitude     = -90.0
	MaxLatitude     = 90.0
	MinLongitude    = -180.0
	MaxLongitude    = 180.0
	AnaemiaHbCutoff = 12.0
	HighGreenPct    = 40.0
)

// Form defaults, matching what the screening page pre-fills.
const (
	DefaultRedPct     = 45.0
	DefaultGreenPct   = 30.0
	DefaultBluePct    = 25.0
	DefaultHemoglobin = 10.0
)

// Sex is the patient's sex as entered on the form.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// Encoded returns the model encoding: M=0, F=1.
func (s Sex) Encoded() float64 {
	if s == SexFemale {
		return 1
	}
	return 0
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// String formats the pair the way the page summary shows it.
func (c Coordinates) String() string {
	return fmt.Sprintf("(%s, %s)", FormatNumber(c.Lat), FormatNumber(c.Lon))
}

// InBounds reports whether both components are within geographic range.
func (c Coordinates) InBounds() bool {
	return c.Lat >= MinLatitude && c.Lat <= MaxLatitude &&
		c.Lon >= MinLongitude && c.Lon <= MaxLongitude
}

// Location is the optional location input: either free text or explicit
// coordinates, never both.
type Location struct {
	Text        string       `json:"text,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// IsZero reports whether no location was supplied.
func (l Location) IsZero() bool {
	return l.Text == "" && l.Coordinates == nil
}

// String returns the free text or the formatted coordinates.
func (l Location) String() string {
	if l.Coordinates != nil {
		return l.Coordinates.String()
	}
	return l.Text
}

// Submission is the raw, unclamped input as it arrives from a form, the JSON
// API, or the CLI.
type Submission struct {
	Sex          string   `json:"sex"`
	RedPct       float64  `json:"red_pct"`
	GreenPct     float64  `json:"green_pct"`
	BluePct      float64  `json:"blue_pct"`
	Hemoglobin   float64  `json:"hemoglobin"`
	LocationText string   `json:"location,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// DefaultSubmission returns the values the form starts with.
func DefaultSubmission() Submission {
	return Submission{
		Sex:        string(SexMale),
		RedPct:     DefaultRedPct,
		GreenPct:   DefaultGreenPct,
		BluePct:    DefaultBluePct,
		Hemoglobin: DefaultHemoglobin,
	}
}

// PredictionRequest is the validated, clamped input for one prediction.
// It is immutable once built.
type PredictionRequest struct {
	Sex        Sex      `json:"sex" validate:"oneof=M F"`
	RedPct     float64  `json:"red_pct" validate:"gte=0,lte=100"`
	GreenPct   float64  `json:"green_pct" validate:"gte=0,lte=100"`
	BluePct    float64  `json:"blue_pct" validate:"gte=0,lte=100"`
	Hemoglobin float64  `json:"hemoglobin" validate:"gte=0,lte=25"`
	Location   Location `json:"location"`
}

var validate = validator.New()

// NewPredictionRequest clamps every numeric field into range and validates
// what clamping cannot repair: an unknown sex, NaN values, or a coordinate
// pair with only one half present.
func NewPredictionRequest(s Submission) (PredictionRequest, error) {
	req := PredictionRequest{
		Sex:        Sex(strings.ToUpper(strings.TrimSpace(s.Sex))),
		RedPct:     clamp(s.RedPct, MinPixelPct, MaxPixelPct),
		GreenPct:   clamp(s.GreenPct, MinPixelPct, MaxPixelPct),
		BluePct:    clamp(s.BluePct, MinPixelPct, MaxPixelPct),
		Hemoglobin: clamp(s.Hemoglobin, MinHemoglobin, MaxHemoglobin),
	}

	loc, err := buildLocation(s)
	if err != nil {
		return PredictionRequest{}, err
	}
	req.Location = loc

	if err := validate.Struct(req); err != nil {
		return PredictionRequest{}, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}
	return req, nil
}

// Features returns the record in the model's fixed schema order.
func (r PredictionRequest) Features() Features {
	return Features{
		SexEncoded: r.Sex.Encoded(),
		RedPct:     r.RedPct,
		GreenPct:   r.GreenPct,
		BluePct:    r.BluePct,
		Hemoglobin: r.Hemoglobin,
	}
}

func buildLocation(s Submission) (Location, error) {
	switch {
	case s.Latitude != nil && s.Longitude != nil:
		// Explicit coordinates win over any free text.
		return Location{Coordinates: &Coordinates{
			Lat: clamp(*s.Latitude, MinLatitude, MaxLatitude),
			Lon: clamp(*s.Longitude, MinLongitude, MaxLongitude),
		}}, nil
	case s.Latitude != nil || s.Longitude != nil:
		return Location{}, fmt.Errorf("%w: latitude and longitude must be given together", ErrInvalidInput)
	default:
		return Location{Text: strings.TrimSpace(s.LocationText)}, nil
	}
}

// clamp bounds v to [lo, hi]. NaN passes through untouched so validation can
// reject it.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Min(math.Max(v, lo), hi)
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
		default:
			parts = append(parts, fmt.Sprintf("%s is not a valid number", fe.Field()))
		}
	}
	return strings.Join(parts, "; ")
}
