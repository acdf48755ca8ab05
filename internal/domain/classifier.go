package domain

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable wraps any failure to load or invoke the classifier.
// It is fatal to the prediction it occurs in.
var ErrModelUnavailable = errors.New("model unavailable")

// FeatureNames is the fixed input schema of every classifier artifact.
var FeatureNames = []string{"Sex", "%Red Pixel", "%Green pixel", "%Blue pixel", "Hb"}

// Features is one record in the model's input schema.
type Features struct {
	SexEncoded float64
	RedPct     float64
	GreenPct   float64
	BluePct    float64
	Hemoglobin float64
}

// Vector returns the features in FeatureNames order.
func (f Features) Vector() []float64 {
	return []float64{f.SexEncoded, f.RedPct, f.GreenPct, f.BluePct, f.Hemoglobin}
}

// Label is the binary class assigned by the model.
type Label int

const (
	LabelNotAnaemic Label = 0
	LabelAnaemic    Label = 1
)

func (l Label) String() string {
	if l == LabelAnaemic {
		return "Anaemic"
	}
	return "Not Anaemic"
}

// MarshalText renders the label as its display string.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses a display string back into a Label, so consumers of
// the prediction topic can decode PredictionEvent.
func (l *Label) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Anaemic":
		*l = LabelAnaemic
	case "Not Anaemic":
		*l = LabelNotAnaemic
	default:
		return fmt.Errorf("unknown label %q", text)
	}
	return nil
}

// Classifier is the required capability of every model.
type Classifier interface {
	Predict(f Features) (Label, error)
}

// ConfidenceClassifier additionally reports the maximum class probability.
type ConfidenceClassifier interface {
	Classifier
	PredictWithConfidence(f Features) (Label, float64, error)
}

// Capability is the explicit variant tag a Model is built with.
type Capability string

const (
	CapabilityLabelOnly  Capability = "label_only"
	CapabilityConfidence Capability = "confidence"
)

// Model is a loaded classifier together with what it can do. The capability
// is fixed when the artifact is loaded; callers never type-assert for methods.
type Model struct {
	Name       string
	Capability Capability

	classifier Classifier
	confident  ConfidenceClassifier
}

// NewLabelOnlyModel wraps a classifier that can only produce a label.
func NewLabelOnlyModel(name string, c Classifier) Model {
	return Model{Name: name, Capability: CapabilityLabelOnly, classifier: c}
}

// NewConfidenceModel wraps a classifier that also reports confidence.
func NewConfidenceModel(name string, c ConfidenceClassifier) Model {
	return Model{Name: name, Capability: CapabilityConfidence, classifier: c, confident: c}
}

// Classify runs the model. Confidence is nil for label-only models.
func (m Model) Classify(f Features) (Label, *float64, error) {
	switch m.Capability {
	case CapabilityConfidence:
		label, conf, err := m.confident.PredictWithConfidence(f)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: predict %s: %w", ErrModelUnavailable, m.Name, err)
		}
		if conf < 0 || conf > 1 {
			return 0, nil, fmt.Errorf("%w: %s returned confidence %v outside [0,1]", ErrModelUnavailable, m.Name, conf)
		}
		return label, &conf, nil
	case CapabilityLabelOnly:
		label, err := m.classifier.Predict(f)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: predict %s: %w", ErrModelUnavailable, m.Name, err)
		}
		return label, nil, nil
	default:
		return 0, nil, fmt.Errorf("%w: %s has no capability", ErrModelUnavailable, m.Name)
	}
}
