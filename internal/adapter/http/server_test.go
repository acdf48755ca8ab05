package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/anaemia-predictor/internal/adapter/http"
	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/couchcryptid/anaemia-predictor/internal/observability"
	"github.com/couchcryptid/anaemia-predictor/internal/pipeline"
	"github.com/couchcryptid/anaemia-predictor/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

// hbThreshold is a confidence-capable classifier on haemoglobin alone.
type hbThreshold struct{}

func (hbThreshold) Predict(f domain.Features) (domain.Label, error) {
	label, _, err := hbThreshold{}.PredictWithConfidence(f)
	return label, err
}

func (hbThreshold) PredictWithConfidence(f domain.Features) (domain.Label, float64, error) {
	if f.Hemoglobin < 12 {
		return domain.LabelAnaemic, 0.82, nil
	}
	return domain.LabelNotAnaemic, 0.91, nil
}

type staticModels struct {
	err error
}

func (s staticModels) Model(_ context.Context) (domain.Model, error) {
	if s.err != nil {
		return domain.Model{}, s.err
	}
	return domain.NewConfidenceModel("hb-threshold", hbThreshold{}), nil
}

type mockGeocoder struct {
	result domain.GeocodingResult
}

func (m mockGeocoder) Geocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	return m.result, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, models pipeline.ModelSource, geocoder domain.Geocoder, readyErr error) *httpadapter.Server {
	t.Helper()
	p := pipeline.New(models, geocoder, nil, discardLogger(), observability.NewMetricsForTesting())
	return httpadapter.NewServer(":0", p, &mockReadiness{err: readyErr}, view.ThemeLight, discardLogger())
}

func postForm(srv http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.ServeHTTP(rec, req)
	return rec
}

// --- operational endpoints ---

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, fmt.Errorf("model artifact missing"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- page ---

func TestIndexRendersForm(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?theme=dark", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `action="/predict"`)
	assert.Contains(t, rec.Body.String(), `name="theme" value="dark"`)
}

func TestUnknownPathIs404(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredictRendersResult(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)

	rec := postForm(srv, "/predict", url.Values{
		"sex":        {"F"},
		"red_pct":    {"45"},
		"green_pct":  {"30"},
		"blue_pct":   {"25"},
		"hemoglobin": {"10"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Prediction: Anaemic")
	assert.Contains(t, body, "Confidence: <b>82.0%</b>")
	assert.Contains(t, body, "Increase iron-rich foods")
	assert.Contains(t, body, `download="anaemia_report.txt"`)
}

func TestPredictEmptyFieldsUseDefaults(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)

	rec := postForm(srv, "/predict", url.Values{"hemoglobin": {""}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hb: <b>10.0</b>")
}

func TestPredictRejectsMalformedNumber(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)

	rec := postForm(srv, "/predict", url.Values{"hemoglobin": {"ten"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hemoglobin (Hb): &#34;ten&#34; is not a number")
}

func TestPredictRejectsUnknownSex(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)

	rec := postForm(srv, "/predict", url.Values{"sex": {"X"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid input")
}

func TestPredictModelUnavailable(t *testing.T) {
	srv := newTestServer(t, staticModels{err: domain.ErrModelUnavailable}, nil, nil)

	rec := postForm(srv, "/predict", url.Values{"sex": {"M"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "the model is unavailable")
}

func TestPredictWithCoordinatesShowsMap(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)

	rec := postForm(srv, "/predict", url.Values{
		"location_mode": {"coordinates"},
		"latitude":      {"-1.2833"},
		"longitude":     {"36.8167"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openstreetmap.org")
	assert.Contains(t, rec.Body.String(), "(-1.2833, 36.8167)")
}

// --- report download ---

func TestReportDownload(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)

	rec := postForm(srv, "/report", url.Values{"sex": {"F"}, "hemoglobin": {"10"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="anaemia_report.txt"`, rec.Header().Get("Content-Disposition"))

	want := "Anaemia Prediction Report\n" +
		"========================\n" +
		"Sex: F\n" +
		"%Red Pixel: 45.0\n" +
		"%Green pixel: 30.0\n" +
		"%Blue pixel: 25.0\n" +
		"Hemoglobin (Hb): 10.0\n" +
		"Prediction: Anaemic\n" +
		"Confidence: 82.0%\n" +
		"\n" +
		"Health Tips:\n" +
		"- Increase iron-rich foods (spinach, beans, red meat).\n" +
		"- Consult your doctor for supplements if needed.\n" +
		"- Get regular checkups.\n" +
		"\n" +
		"[Learn more about anaemia (WHO)](https://www.who.int/news-room/fact-sheets/detail/anaemia)\n"
	assert.Equal(t, want, rec.Body.String())
}

func TestReportRejectsInvalidInput(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)

	rec := postForm(srv, "/report", url.Values{"sex": {"unknown"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- JSON API ---

func postJSON(srv http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predictions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func TestAPIPredict(t *testing.T) {
	geo := mockGeocoder{result: domain.GeocodingResult{Lat: 5.6037, Lon: -0.187, FormattedAddress: "Accra, Ghana"}}
	srv := newTestServer(t, staticModels{}, geo, nil)

	rec := postJSON(srv, `{"sex":"M","red_pct":45,"green_pct":45,"blue_pct":10,"hemoglobin":14.5,"location":"Accra"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ID     string `json:"id"`
		Result struct {
			Label      string   `json:"label"`
			Confidence *float64 `json:"confidence"`
			Tips       []string `json:"tips"`
		} `json:"result"`
		Location struct {
			Source      string `json:"source"`
			Coordinates *struct {
				Lat float64 `json:"lat"`
			} `json:"coordinates"`
		} `json:"location"`
		ModelName string   `json:"model_name"`
		Report    string   `json:"report"`
		Warnings  []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "Not Anaemic", body.Result.Label)
	require.NotNil(t, body.Result.Confidence)
	assert.InDelta(t, 0.91, *body.Result.Confidence, 1e-9)
	assert.Equal(t, domain.TipStayHydrated, body.Result.Tips[0])
	assert.Equal(t, domain.LocationSourceForward, body.Location.Source)
	require.NotNil(t, body.Location.Coordinates)
	assert.InDelta(t, 5.6037, body.Location.Coordinates.Lat, 1e-9)
	assert.Equal(t, "hb-threshold", body.ModelName)
	assert.Contains(t, body.Report, "Location: Accra")
	assert.Empty(t, body.Warnings)
}

func TestAPIPredictGeocodingDisabledWarns(t *testing.T) {
	srv := newTestServer(t, staticModels{}, nil, nil)

	rec := postJSON(srv, `{"sex":"F","hemoglobin":10,"location":"Accra"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{domain.WarningGeocodingOff}, body.Warnings)
}

func TestAPIPredictErrors(t *testing.T) {
	tests := []struct {
		name       string
		models     pipeline.ModelSource
		body       string
		wantStatus int
		wantError  string
	}{
		{"malformed json", staticModels{}, `{"sex":`, http.StatusBadRequest, "decode request"},
		{"unknown field", staticModels{}, `{"sex":"M","age":40}`, http.StatusBadRequest, "unknown field"},
		{"half coordinate pair", staticModels{}, `{"sex":"M","latitude":1}`, http.StatusBadRequest, "latitude and longitude"},
		{"model unavailable", staticModels{err: domain.ErrModelUnavailable}, `{"sex":"M"}`, http.StatusInternalServerError, "model is unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.models, nil, nil)
			rec := postJSON(srv, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantError)
		})
	}
}
