// Package model loads externally trained anaemia classifiers from disk.
//
// An artifact is a JSON document exported by the training job. Its "kind"
// field selects the decision function and, with it, the capability the
// loaded domain.Model is tagged with:
//
//	logistic_regression  confidence   sigmoid over a linear score
//	decision_tree        confidence   class counts at the reached leaf
//	linear_svm           label_only   sign of a linear decision function
//
// Every artifact must list its features in the fixed schema order
// (domain.FeatureNames); anything else is refused rather than silently
// mis-mapped.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/couchcryptid/anaemia-predictor/internal/domain"
)

var (
	// ErrUnknownModelKind is returned for an artifact kind this package cannot evaluate.
	ErrUnknownModelKind = errors.New("unknown model kind")
	// ErrFeatureMismatch is returned when an artifact was trained on a different schema.
	ErrFeatureMismatch = errors.New("feature schema mismatch")
)

// Artifact kinds.
const (
	KindLogisticRegression = "logistic_regression"
	KindDecisionTree       = "decision_tree"
	KindLinearSVM          = "linear_svm"
)

// Artifact is the on-disk representation of a trained classifier.
type Artifact struct {
	Kind     string   `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Features []string `json:"features"`

	// Linear models.
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
	Threshold    *float64  `json:"threshold,omitempty"`

	// Tree models.
	Tree *TreeNode `json:"tree,omitempty"`
}

// LoadFile reads and builds the artifact at path.
func LoadFile(path string) (domain.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Model{}, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return domain.Model{}, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// Load decodes an artifact and builds the matching model.
func Load(r io.Reader) (domain.Model, error) {
	var a Artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return domain.Model{}, fmt.Errorf("decode artifact: %w", err)
	}
	return a.Build()
}

// Build validates the artifact and returns a model tagged with its capability.
func (a Artifact) Build() (domain.Model, error) {
	if !slices.Equal(a.Features, domain.FeatureNames) {
		return domain.Model{}, fmt.Errorf("%w: got %q, want %q", ErrFeatureMismatch, a.Features, domain.FeatureNames)
	}

	name := a.Name
	if name == "" {
		name = a.Kind
	}

	switch a.Kind {
	case KindLogisticRegression:
		lr, err := newLogisticRegression(a)
		if err != nil {
			return domain.Model{}, err
		}
		return domain.NewConfidenceModel(name, lr), nil
	case KindDecisionTree:
		dt, err := newDecisionTree(a)
		if err != nil {
			return domain.Model{}, err
		}
		return domain.NewConfidenceModel(name, dt), nil
	case KindLinearSVM:
		svm, err := newLinearSVM(a)
		if err != nil {
			return domain.Model{}, err
		}
		return domain.NewLabelOnlyModel(name, svm), nil
	default:
		return domain.Model{}, fmt.Errorf("%w: %q", ErrUnknownModelKind, a.Kind)
	}
}

func checkCoefficients(a Artifact) error {
	if len(a.Coefficients) != len(domain.FeatureNames) {
		return fmt.Errorf("%s: expected %d coefficients, got %d", a.Kind, len(domain.FeatureNames), len(a.Coefficients))
	}
	return nil
}

func dot(w, x []float64) float64 {
	var s float64
	for i := range w {
		s += w[i] * x[i]
	}
	return s
}
