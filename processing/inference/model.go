package inference

import (
	"github.com/pkg/errors"
)

var (
	ErrModelUnavailable = errors.New("model not loaded")
	ErrBadInput         = errors.New("input tensor has unexpected size")
	ErrBadOutput        = errors.New("model output has unexpected size")
)

// Model runs one forward pass over a flat input tensor and returns the
// class probabilities.
type Model interface {
	Run(input []float32) ([]float32, error)
	Close() error
}

// Unloaded stands in for a model that could not be loaded.
type Unloaded struct {
	Reason error
}

func (u Unloaded) Run([]float32) ([]float32, error) {
	if u.Reason != nil {
		return nil, errors.Wrap(ErrModelUnavailable, u.Reason.Error())
	}
	return nil, ErrModelUnavailable
}

func (Unloaded) Close() error { return nil }

func Loaded(m Model) bool {
	if m == nil {
		return false
	}
	_, unloaded := m.(Unloaded)
	return !unloaded
}
