package view

//go:generate templ generate

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/couchcryptid/anaemia-predictor/internal/pipeline"
)

// PageData is everything the prediction page shows.
type PageData struct {
	Form    FormValues
	Outcome *pipeline.Outcome
	Error   string
}

var sexOptions = []string{string(domain.SexMale), string(domain.SexFemale)}

var locationModes = []struct{ value, label string }{
	{LocationModeText, "Country/City"},
	{LocationModeCoordinates, "Latitude/Longitude"},
}

// styles writes the palette for cfg. Every value comes from the fixed
// palettes table, never from request data.
func styles(cfg RenderConfig) templ.Component {
	p := cfg.palette()
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<style>`+
			`body{background:%s;color:%s;font-family:sans-serif;margin:0;display:flex;min-height:100vh}`+
			`aside{width:16em;padding:1em;background:rgba(0,0,0,0.05)}main{flex:1;padding:1em 2em;max-width:60em}`+
			`.main-title{color:%s;font-size:2em;font-weight:bold}`+
			`.footer{color:%s;margin-top:2em}`+
			`.user-summary{background:%s;color:%s;padding:1em;border-radius:8px;margin:1em 0}`+
			`.health-tips{background:%s;color:%s;padding:1em;border-radius:8px;margin:1em 0}`+
			`.map-card{background:%s;border-radius:12px;padding:1.5em;margin:1em 0}`+
			`.anaemic{color:%s}.healthy{color:%s}.warning{color:%s}`+
			`.prediction{font-size:1.5em;font-weight:bold}.columns{display:flex;gap:2em}.columns>div{flex:1}`+
			`label{display:block;margin-top:0.5em}.error{border:1px solid #B22222;padding:0.5em;margin:1em 0}`+
			`</style>`,
			p.background, p.text, p.title, p.footer, p.summary, p.summaryFg,
			p.tips, p.tipsFg, p.mapCard, p.anaemic, p.healthy, p.warning)
		return err
	})
}

func formatInput(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// resolvedAddress is the geocoder's name for the place when it adds something
// to what the user typed.
func resolvedAddress(out pipeline.Outcome) string {
	addr := out.Location.FormattedAddress
	if addr == out.Request.Location.Text {
		return ""
	}
	return addr
}

// ReportDataURI embeds a report in a link target so the result page can offer
// the download without a second request.
func ReportDataURI(report string) string {
	return "data:text/plain;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(report))
}

// MapURL points at an OpenStreetMap marker for c.
func MapURL(c domain.Coordinates) string {
	lat, lon := formatInput(c.Lat), formatInput(c.Lon)
	q := url.Values{"mlat": {lat}, "mlon": {lon}}
	return "https://www.openstreetmap.org/?" + q.Encode() + "#map=10/" + lat + "/" + lon
}
