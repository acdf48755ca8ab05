package domain

import "time"

// PredictionEvent is the anonymised record published after a prediction.
// It carries no input values or location.
type PredictionEvent struct {
	ID             string     `json:"id"`
	Label          Label      `json:"label"`
	Confidence     *float64   `json:"confidence,omitempty"`
	Capability     Capability `json:"capability"`
	ModelName      string     `json:"model_name"`
	TipCount       int        `json:"tip_count"`
	HasCoordinates bool       `json:"has_coordinates"`
	LocationSource string     `json:"location_source"`
	PredictedAt    time.Time  `json:"predicted_at"`
}

// NewPredictionEvent builds the event for a finished prediction, stamped with
// the package clock.
func NewPredictionEvent(id string, model Model, res PredictionResult, loc LocationResolution) PredictionEvent {
	return PredictionEvent{
		ID:             id,
		Label:          res.Label,
		Confidence:     res.Confidence,
		Capability:     model.Capability,
		ModelName:      model.Name,
		TipCount:       len(res.Tips),
		HasCoordinates: loc.Coordinates != nil,
		LocationSource: loc.Source,
		PredictedAt:    clock.Now().UTC(),
	}
}
