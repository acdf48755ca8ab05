package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/anaemia-predictor/internal/view"
)

// parseForm reads a submitted prediction form. Empty numeric fields keep
// their defaults; malformed ones are an error. The returned FormValues is
// always usable for re-rendering the form, even alongside an error.
func parseForm(r *http.Request) (view.FormValues, string, error) {
	f := view.DefaultFormValues()
	if err := r.ParseForm(); err != nil {
		return f, "", fmt.Errorf("read form: %w", err)
	}
	form := r.PostForm
	theme := form.Get("theme")

	if sex := strings.TrimSpace(form.Get("sex")); sex != "" {
		f.Sex = sex
	}
	if form.Get("location_mode") == view.LocationModeCoordinates {
		f.LocationMode = view.LocationModeCoordinates
	}
	f.LocationText = strings.TrimSpace(form.Get("location"))

	fields := []struct {
		key   string
		label string
		dst   *float64
	}{
		{"red_pct", "%Red Pixel", &f.RedPct},
		{"green_pct", "%Green pixel", &f.GreenPct},
		{"blue_pct", "%Blue pixel", &f.BluePct},
		{"hemoglobin", "Hemoglobin (Hb)", &f.Hemoglobin},
		{"latitude", "Latitude", &f.Latitude},
		{"longitude", "Longitude", &f.Longitude},
	}
	var problems []string
	for _, field := range fields {
		raw := strings.TrimSpace(form.Get(field.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %q is not a number", field.label, raw))
			continue
		}
		*field.dst = v
	}
	if len(problems) > 0 {
		return f, theme, fmt.Errorf("invalid input: %s", strings.Join(problems, "; "))
	}
	return f, theme, nil
}
