// Package model loads the offline-trained classification artifact and
// applies it to feature vectors. The artifact is loaded once at startup,
// validated, and read-only afterwards.
package model

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// FormatVersion is the artifact format this build understands. Artifacts
// with any other version fail the load rather than being guessed at.
const FormatVersion = 1

// ErrModelLoad is returned when the artifact is missing, corrupt, or has
// the wrong format version. Fatal to the process at startup.
var ErrModelLoad = errors.New("model load failed")

// ErrSchemaMismatch is returned when a feature vector does not match the
// schema the model was trained on. It indicates a deployment/versioning
// bug, never a transient condition.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

//go:embed default_model.json
var defaultArtifact []byte

// Model is the immutable artifact produced by the offline trainer.
type Model struct {
	FormatVersion int                `json:"format_version"`
	Family        string             `json:"family"`
	TrainedAt     time.Time          `json:"trained_at"`
	Features      []string           `json:"features"`
	Weights       map[string]float64 `json:"weights"`
	Bias          float64            `json:"bias"`
	Threshold     float64            `json:"threshold"`

	// weights reordered into schema order at load time.
	ordered []float64
}

// Load reads a model artifact from path, or the embedded default when path
// is empty. Every validation failure wraps ErrModelLoad.
func Load(path string) (*Model, error) {
	data := defaultArtifact
	source := "embedded"
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %q: %v", ErrModelLoad, path, err)
		}
		source = path
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrModelLoad, source, err)
	}

	if m.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %s has format_version %d, want %d",
			ErrModelLoad, source, m.FormatVersion, FormatVersion)
	}
	if len(m.Features) == 0 {
		return nil, fmt.Errorf("%w: %s declares no features", ErrModelLoad, source)
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return nil, fmt.Errorf("%w: %s threshold %v outside (0,1)",
			ErrModelLoad, source, m.Threshold)
	}

	m.ordered = make([]float64, len(m.Features))
	for i, name := range m.Features {
		w, ok := m.Weights[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s missing weight for feature %q",
				ErrModelLoad, source, name)
		}
		m.ordered[i] = w
	}

	return &m, nil
}
