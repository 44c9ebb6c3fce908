package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgmax(t *testing.T) {
	tests := []struct {
		name   string
		values []float32
		want   int
	}{
		{"empty", nil, -1},
		{"single", []float32{0.3}, 0},
		{"last", []float32{0.1, 0, 0, 0, 0, 0, 0, 0, 0, 0.9}, 9},
		{"tie keeps lowest index", []float32{0.2, 0.4, 0.4}, 1},
		{"uniform", []float32{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Argmax(tt.values))
		})
	}
}

func TestTopK(t *testing.T) {
	probs := []float32{0.1, 0, 0, 0, 0, 0, 0, 0, 0, 0.9}

	got := TopK(probs, TopCount)

	assert.Equal(t, []ClassScore{
		{Class: 9, Probability: 0.9},
		{Class: 0, Probability: 0.1},
		{Class: 1, Probability: 0},
	}, got)
}

func TestTopKDoesNotMutateInput(t *testing.T) {
	probs := []float32{0.2, 0.5, 0.3}

	TopK(probs, 2)

	assert.Equal(t, []float32{0.2, 0.5, 0.3}, probs)
}

func TestTopKShorterThanK(t *testing.T) {
	got := TopK([]float32{0.4, 0.6}, TopCount)

	assert.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Class)
}

func TestTopKNonPositive(t *testing.T) {
	probs := []float32{0.4, 0.6}

	assert.Empty(t, TopK(probs, 0))
	assert.NotPanics(t, func() { TopK(probs, -1) })
	assert.Empty(t, TopK(probs, -1))
}

func TestPredictionText(t *testing.T) {
	p := &Prediction{
		Class:         9,
		Probabilities: []float32{0.1, 0, 0, 0, 0, 0, 0, 0, 0, 0.9},
		Top: []ClassScore{
			{Class: 9, Probability: 0.9},
			{Class: 0, Probability: 0.1},
			{Class: 1, Probability: 0},
		},
	}

	assert.Equal(t, "Prediction: 9", p.Headline())
	assert.Equal(t, "Confidence: 90.0% | Top 3: 9(90.0%) 0(10.0%) 1(0.0%)", p.Details())
	assert.InDelta(t, 0.9, p.Confidence(), 1e-6)
}

func TestConfidenceOutOfRange(t *testing.T) {
	p := &Prediction{Class: 4, Probabilities: []float32{0.5, 0.5}}

	assert.Zero(t, p.Confidence())
}
