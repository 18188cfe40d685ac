package model

import (
	"fmt"
	"math"

	"github.com/linkshield/linkshield-go/internal/features"
)

// Verdict labels.
const (
	LabelMalicious = "malicious"
	LabelBenign    = "benign"
)

// Verdict is the classification output for a single URL.
type Verdict struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // in [0,1], confidence in Label
	Score      float64 `json:"score"`      // raw malicious probability
}

// Options tune a Classifier. The zero value uses the model's own threshold.
type Options struct {
	// Threshold overrides the artifact's decision threshold when non-zero.
	// Must be in (0,1).
	Threshold float64
}

// Classifier applies a loaded model to feature vectors. The model weights
// are read-only, so a single Classifier serves concurrent requests.
type Classifier struct {
	model     *Model
	threshold float64
}

// NewClassifier wraps a loaded model. An out-of-range threshold override is
// rejected here rather than silently clamped.
func NewClassifier(m *Model, opts Options) (*Classifier, error) {
	threshold := m.Threshold
	if opts.Threshold != 0 {
		if opts.Threshold <= 0 || opts.Threshold >= 1 {
			return nil, fmt.Errorf("threshold %v outside (0,1)", opts.Threshold)
		}
		threshold = opts.Threshold
	}
	return &Classifier{model: m, threshold: threshold}, nil
}

// Threshold returns the active decision threshold.
func (c *Classifier) Threshold() float64 { return c.threshold }

// Predict scores a feature vector and thresholds it into a Verdict.
// The vector must match the model's trained schema exactly (count, order,
// names); any difference fails with ErrSchemaMismatch.
func (c *Classifier) Predict(fv *features.FeatureVector) (Verdict, error) {
	names := fv.Names()
	values := fv.Values()

	if len(names) != len(c.model.Features) {
		return Verdict{}, fmt.Errorf("%w: vector has %d features, model wants %d",
			ErrSchemaMismatch, len(names), len(c.model.Features))
	}
	for i, name := range c.model.Features {
		if names[i] != name {
			return Verdict{}, fmt.Errorf("%w: feature %d is %q, model wants %q",
				ErrSchemaMismatch, i, names[i], name)
		}
	}

	z := c.model.Bias
	for i, v := range values {
		z += c.model.ordered[i] * v
	}
	score := sigmoid(z)

	v := Verdict{Score: score}
	if score >= c.threshold {
		v.Label = LabelMalicious
		v.Confidence = score
	} else {
		v.Label = LabelBenign
		v.Confidence = 1 - score
	}
	return v, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
