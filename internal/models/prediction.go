package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const TopCount = 3

type ClassScore struct {
	Class       int     `json:"class"`
	Probability float32 `json:"probability"`
}

type Prediction struct {
	ID            string        `json:"id"`
	Class         int           `json:"class"`
	Probabilities []float32     `json:"probabilities"`
	Top           []ClassScore  `json:"top"`
	Latency       time.Duration `json:"latency"`
}

// Confidence is the probability of the predicted class.
func (p *Prediction) Confidence() float32 {
	if p.Class < 0 || p.Class >= len(p.Probabilities) {
		return 0
	}
	return p.Probabilities[p.Class]
}

func (p *Prediction) Headline() string {
	return fmt.Sprintf("Prediction: %d", p.Class)
}

func (p *Prediction) Details() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Confidence: %.1f%% | Top %d:", p.Confidence()*100, len(p.Top))
	for _, s := range p.Top {
		fmt.Fprintf(&sb, " %d(%.1f%%)", s.Class, s.Probability*100)
	}

	return sb.String()
}

// Argmax returns the index of the largest value; the lowest index wins ties.
// It returns -1 for an empty slice.
func Argmax(values []float32) int {
	if len(values) == 0 {
		return -1
	}

	maxIdx := 0
	maxVal := values[0]
	for i, v := range values {
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
	}

	return maxIdx
}

// TopK ranks values descending, ties broken by ascending index. A negative
// k yields an empty ranking.
func TopK(values []float32, k int) []ClassScore {
	if k < 0 {
		k = 0
	}

	scores := make([]ClassScore, len(values))
	for i, v := range values {
		scores[i] = ClassScore{Class: i, Probability: v}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Probability > scores[j].Probability
	})

	if k < len(scores) {
		scores = scores[:k]
	}

	return scores
}
