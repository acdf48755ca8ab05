package model

import (
	"fmt"
	"math"

	"github.com/couchcryptid/anaemia-predictor/internal/domain"
)

type logisticRegression struct {
	coef      []float64
	intercept float64
	threshold float64
}

func newLogisticRegression(a Artifact) (*logisticRegression, error) {
	if err := checkCoefficients(a); err != nil {
		return nil, err
	}
	threshold := 0.5
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("%s: threshold %v outside (0,1)", a.Kind, threshold)
	}
	return &logisticRegression{coef: a.Coefficients, intercept: a.Intercept, threshold: threshold}, nil
}

// probability returns P(class 1).
func (m *logisticRegression) probability(f domain.Features) float64 {
	return sigmoid(dot(m.coef, f.Vector()) + m.intercept)
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func (m *logisticRegression) Predict(f domain.Features) (domain.Label, error) {
	label, _, err := m.PredictWithConfidence(f)
	return label, err
}

// PredictWithConfidence labels f Anaemic when P(class 1) is above the
// threshold; a score exactly at the threshold goes to class 0. Confidence is
// the larger class probability whatever the threshold, so with a threshold
// other than 0.5 it can belong to the class that was not chosen.
func (m *logisticRegression) PredictWithConfidence(f domain.Features) (domain.Label, float64, error) {
	p := m.probability(f)
	if math.IsNaN(p) {
		return 0, 0, fmt.Errorf("logistic score is NaN")
	}
	conf := math.Max(p, 1-p)
	if p > m.threshold {
		return domain.LabelAnaemic, conf, nil
	}
	return domain.LabelNotAnaemic, conf, nil
}

type linearSVM struct {
	coef      []float64
	intercept float64
}

func newLinearSVM(a Artifact) (*linearSVM, error) {
	if err := checkCoefficients(a); err != nil {
		return nil, err
	}
	return &linearSVM{coef: a.Coefficients, intercept: a.Intercept}, nil
}

func (m *linearSVM) Predict(f domain.Features) (domain.Label, error) {
	d := dot(m.coef, f.Vector()) + m.intercept
	if math.IsNaN(d) {
		return 0, fmt.Errorf("svm decision value is NaN")
	}
	if d > 0 {
		return domain.LabelAnaemic, nil
	}
	return domain.LabelNotAnaemic, nil
}
