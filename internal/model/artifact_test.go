package model

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func features(sex, red, green, blue, hb float64) domain.Features {
	return domain.Features{SexEncoded: sex, RedPct: red, GreenPct: green, BluePct: blue, Hemoglobin: hb}
}

func TestLoadFile_LogisticRegression(t *testing.T) {
	m, err := LoadFile("testdata/logistic.json")
	require.NoError(t, err)

	assert.Equal(t, "hb-logistic", m.Name)
	assert.Equal(t, domain.CapabilityConfidence, m.Capability)

	t.Run("low hb is anaemic", func(t *testing.T) {
		label, conf, err := m.Classify(features(1, 45, 30, 25, 10))
		require.NoError(t, err)
		assert.Equal(t, domain.LabelAnaemic, label)
		require.NotNil(t, conf)
		assert.InDelta(t, sigmoid(2), *conf, 1e-9)
	})

	t.Run("high hb is not anaemic", func(t *testing.T) {
		label, conf, err := m.Classify(features(0, 45, 30, 25, 14))
		require.NoError(t, err)
		assert.Equal(t, domain.LabelNotAnaemic, label)
		require.NotNil(t, conf)
		assert.InDelta(t, 1-sigmoid(-2), *conf, 1e-9)
	})

	t.Run("score at threshold goes to class 0", func(t *testing.T) {
		label, conf, err := m.Classify(features(0, 45, 30, 25, 12))
		require.NoError(t, err)
		assert.Equal(t, domain.LabelNotAnaemic, label)
		assert.InDelta(t, 0.5, *conf, 1e-9)
	})
}

func TestLogisticRegression_CustomThreshold(t *testing.T) {
	// Constant score: P(class 1) = 0.6 for every input.
	doc := fmt.Sprintf(`{"kind":"logistic_regression","name":"strict",`+
		`"features":["Sex","%%Red Pixel","%%Green pixel","%%Blue pixel","Hb"],`+
		`"coefficients":[0,0,0,0,0],"intercept":%v,"threshold":%v}`, math.Log(1.5), 0.7)

	m, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	label, conf, err := m.Classify(features(1, 45, 30, 25, 10))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelNotAnaemic, label, "0.6 is below the 0.7 threshold")
	require.NotNil(t, conf)
	assert.InDelta(t, 0.6, *conf, 1e-9, "confidence is the maximum class probability")
	assert.GreaterOrEqual(t, *conf, 0.5)
}

func TestLoadFile_DecisionTree(t *testing.T) {
	m, err := LoadFile("testdata/tree.json")
	require.NoError(t, err)
	assert.Equal(t, domain.CapabilityConfidence, m.Capability)

	tests := []struct {
		name      string
		f         domain.Features
		wantLabel domain.Label
		wantConf  float64
	}{
		{name: "low hb leaf", f: features(0, 45, 30, 25, 10), wantLabel: domain.LabelAnaemic, wantConf: 0.95},
		{name: "normal hb, low green", f: features(0, 45, 30, 25, 13), wantLabel: domain.LabelNotAnaemic, wantConf: 0.9},
		{name: "normal hb, high green", f: features(0, 30, 45, 25, 13), wantLabel: domain.LabelAnaemic, wantConf: 0.7},
		{name: "split value goes left", f: features(0, 45, 40, 25, 11.95), wantLabel: domain.LabelAnaemic, wantConf: 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, conf, err := m.Classify(tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, label)
			require.NotNil(t, conf)
			assert.InDelta(t, tt.wantConf, *conf, 1e-9)
		})
	}
}

func TestLoadFile_LinearSVM(t *testing.T) {
	m, err := LoadFile("testdata/svm.json")
	require.NoError(t, err)

	assert.Equal(t, KindLinearSVM, m.Name, "name defaults to kind")
	assert.Equal(t, domain.CapabilityLabelOnly, m.Capability)

	label, conf, err := m.Classify(features(0, 45, 30, 25, 9))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelAnaemic, label)
	assert.Nil(t, conf)

	label, _, err = m.Classify(features(0, 45, 30, 25, 15))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelNotAnaemic, label)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/does-not-exist.json")
	require.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	const schema = `"features":["Sex","%Red Pixel","%Green pixel","%Blue pixel","Hb"]`

	tests := []struct {
		name    string
		doc     string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown kind",
			doc:     `{"kind":"random_forest",` + schema + `}`,
			wantErr: ErrUnknownModelKind,
		},
		{
			name:    "feature order mismatch",
			doc:     `{"kind":"linear_svm","features":["Hb","Sex","%Red Pixel","%Green pixel","%Blue pixel"],"coefficients":[1,1,1,1,1]}`,
			wantErr: ErrFeatureMismatch,
		},
		{
			name:    "wrong coefficient count",
			doc:     `{"kind":"logistic_regression",` + schema + `,"coefficients":[1,2]}`,
			wantMsg: "expected 5 coefficients",
		},
		{
			name:    "threshold out of range",
			doc:     `{"kind":"logistic_regression",` + schema + `,"coefficients":[0,0,0,0,1],"threshold":1.5}`,
			wantMsg: "threshold",
		},
		{
			name:    "tree missing",
			doc:     `{"kind":"decision_tree",` + schema + `}`,
			wantMsg: "missing tree",
		},
		{
			name:    "tree leaf without counts",
			doc:     `{"kind":"decision_tree",` + schema + `,"tree":{"feature":4,"threshold":12,"left":{"value":[1,2]},"right":{}}}`,
			wantMsg: "class counts",
		},
		{
			name:    "tree splits on unknown feature",
			doc:     `{"kind":"decision_tree",` + schema + `,"tree":{"feature":9,"threshold":12,"left":{"value":[1,2]},"right":{"value":[2,1]}}}`,
			wantMsg: "feature 9",
		},
		{
			name:    "unknown field",
			doc:     `{"kind":"linear_svm",` + schema + `,"coefficients":[1,1,1,1,1],"gamma":0.1}`,
			wantMsg: "unknown field",
		},
		{
			name:    "not json",
			doc:     `PK\x03\x04`,
			wantMsg: "decode artifact",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestSampleArtifact(t *testing.T) {
	m, err := LoadFile("../../models/anaemia_model.json")
	require.NoError(t, err)
	assert.Equal(t, domain.CapabilityConfidence, m.Capability)

	label, _, err := m.Classify(features(0, 45, 30, 25, 10))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelAnaemic, label)

	label, _, err = m.Classify(features(0, 45, 30, 25, 15))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelNotAnaemic, label)
}
