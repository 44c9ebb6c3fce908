// Package inference wraps the digit classifier behind a single Predict call.
package inference

import (
	"sync"
	"time"

	"digitpad/internal/logger"
	"digitpad/internal/models"
	"digitpad/processing/normalize"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Adapter owns the model for the lifetime of the application.
type Adapter struct {
	mu      sync.Mutex
	model   Model
	classes int
	log     zerolog.Logger
}

func NewAdapter(model Model, classes int) *Adapter {
	if model == nil {
		model = Unloaded{}
	}
	return &Adapter{
		model:   model,
		classes: classes,
		log:     logger.Component("inference"),
	}
}

// Available reports whether Predict can reach a real model.
func (a *Adapter) Available() bool {
	return Loaded(a.model)
}

// Reason explains why the model is unavailable, or returns nil.
func (a *Adapter) Reason() error {
	if u, ok := a.model.(Unloaded); ok {
		if u.Reason != nil {
			return u.Reason
		}
		return ErrModelUnavailable
	}
	return nil
}

// Predict runs the model once. Probabilities are returned as produced by
// the model; only their count is checked.
func (a *Adapter) Predict(t normalize.Tensor) (*models.Prediction, error) {
	want := 1
	for _, d := range t.Shape {
		want *= int(d)
	}
	if len(t.Data) == 0 || len(t.Data) != want {
		return nil, errors.Wrapf(ErrBadInput, "got %d values for shape %v", len(t.Data), t.Shape)
	}

	a.mu.Lock()
	start := time.Now()
	probs, err := a.model.Run(t.Data)
	latency := time.Since(start)
	a.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if len(probs) != a.classes {
		return nil, errors.Wrapf(ErrBadOutput, "got %d values, want %d", len(probs), a.classes)
	}

	p := &models.Prediction{
		ID:            uuid.NewString(),
		Class:         models.Argmax(probs),
		Probabilities: probs,
		Top:           models.TopK(probs, models.TopCount),
		Latency:       latency,
	}

	a.log.Debug().
		Str("id", p.ID).
		Int("class", p.Class).
		Float32("confidence", p.Confidence()).
		Dur("latency", latency).
		Msg("prediction")

	return p, nil
}

func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.Close()
}
