package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/couchcryptid/anaemia-predictor/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ModelSource supplies the classifier for a run.
type ModelSource interface {
	Model(ctx context.Context) (domain.Model, error)
}

// EventPublisher receives one anonymised event per successful prediction.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.PredictionEvent) error
}

// Outcome is everything produced by one run.
type Outcome struct {
	ID         string                    `json:"id"`
	Request    domain.PredictionRequest  `json:"request"`
	Result     domain.PredictionResult   `json:"result"`
	Location   domain.LocationResolution `json:"location"`
	ModelName  string                    `json:"model_name"`
	Capability domain.Capability         `json:"capability"`
	Report     string                    `json:"report"`
}

// Warnings returns the non-fatal problems a caller should surface.
func (o Outcome) Warnings() []string {
	if o.Location.Warning == "" {
		return nil
	}
	return []string{o.Location.Warning}
}

// Pipeline runs submission → validated request → location → classification →
// advice → report. Runs share no mutable state; a Pipeline is safe for
// concurrent use if its collaborators are.
type Pipeline struct {
	models    ModelSource
	geocoder  domain.Geocoder
	publisher EventPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	newID     func() string
}

// New creates a Pipeline. A nil geocoder disables place-name lookup and a nil
// publisher disables prediction events.
func New(models ModelSource, geocoder domain.Geocoder, publisher EventPublisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		models:    models,
		geocoder:  geocoder,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		newID:     uuid.NewString,
	}
}

// CheckReadiness reports whether a model can currently be served.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	_, err := p.models.Model(ctx)
	return err
}

// Run executes one prediction. Errors wrap domain.ErrInvalidInput when the
// submission is rejected and domain.ErrModelUnavailable when the classifier
// cannot be loaded or fails. Location problems never fail a run; they are
// reported through Outcome.Location.Warning.
func (p *Pipeline) Run(ctx context.Context, sub domain.Submission) (Outcome, error) {
	start := p.clock.Now()

	req, err := domain.NewPredictionRequest(sub)
	if err != nil {
		p.metrics.PredictionErrors.WithLabelValues("input").Inc()
		return Outcome{}, err
	}

	loc := domain.ResolveLocation(ctx, req.Location, p.geocoder, p.logger)
	p.metrics.LocationResolutions.WithLabelValues(loc.Source).Inc()

	model, err := p.models.Model(ctx)
	if err != nil {
		p.metrics.PredictionErrors.WithLabelValues("model").Inc()
		return Outcome{}, err
	}

	label, confidence, err := model.Classify(req.Features())
	if err != nil {
		p.metrics.PredictionErrors.WithLabelValues("model").Inc()
		return Outcome{}, err
	}

	result := domain.NewPredictionResult(req, label, confidence)
	out := Outcome{
		ID:         p.newID(),
		Request:    req,
		Result:     result,
		Location:   loc,
		ModelName:  model.Name,
		Capability: model.Capability,
		Report:     domain.RenderReport(req, result),
	}

	p.metrics.PredictionsTotal.WithLabelValues(label.String()).Inc()
	p.metrics.PredictionDuration.Observe(p.clock.Since(start).Seconds())
	p.logger.Info("prediction complete",
		"id", out.ID,
		"label", label.String(),
		"model", model.Name,
		"capability", model.Capability,
		"location_source", loc.Source,
	)

	p.publish(ctx, domain.NewPredictionEvent(out.ID, model, result, loc))
	return out, nil
}

func (p *Pipeline) publish(ctx context.Context, event domain.PredictionEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("publish prediction event failed", "id", event.ID, "error", err)
	}
}
