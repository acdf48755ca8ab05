package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModel = "../../models/anaemia_model.json"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestPredict_PrintsReport(t *testing.T) {
	out, _, err := execute(t, "--model", sampleModel, "--no-geocode", "--sex", "F", "--hb", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "Anaemia Prediction Report\n")
	assert.Contains(t, out, "Sex: F\n")
	assert.Contains(t, out, "Hemoglobin (Hb): 10.0\n")
	assert.Contains(t, out, "Prediction: Anaemic\n")
	assert.Contains(t, out, "Confidence: ")
}

func TestPredict_Coordinates(t *testing.T) {
	out, _, err := execute(t, "--model", sampleModel, "--hb", "15", "--lat=-1.5", "--lon=36")
	require.NoError(t, err)

	assert.Contains(t, out, "Location: (-1.5, 36.0)\n")
	assert.Contains(t, out, "Prediction: Not Anaemic\n")
}

func TestPredict_JSON(t *testing.T) {
	out, _, err := execute(t, "--model", sampleModel, "--no-geocode", "--json")
	require.NoError(t, err)

	var body struct {
		ID        string `json:"id"`
		ModelName string `json:"model_name"`
		Result    struct {
			Label string `json:"label"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "anaemia-logreg-v1", body.ModelName)
	assert.Equal(t, domain.LabelAnaemic.String(), body.Result.Label)
}

func TestPredict_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), domain.ReportFilename)

	out, _, err := execute(t, "--model", sampleModel, "--no-geocode", "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Health Tips:")
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown sex", []string{"--model", sampleModel, "--sex", "X"}, "invalid input"},
		{"missing model", []string{"--model", "does-not-exist.json"}, "model unavailable"},
		{"location with coordinates", []string{"--location", "Nairobi", "--lat", "1", "--lon", "2"}, "none of the others can be"},
		{"lat without lon", []string{"--lat", "1"}, "must all be set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
