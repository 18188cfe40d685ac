package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkshield/linkshield-go/internal/features"
)

// writeArtifact marshals a model artifact to a temp file and returns its path.
func writeArtifact(t *testing.T, m map[string]any) string {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// flatArtifact builds a valid artifact over the full feature schema with
// every weight set to w.
func flatArtifact(w float64, bias, threshold float64) map[string]any {
	weights := make(map[string]float64, len(features.FeatureNames))
	for _, name := range features.FeatureNames {
		weights[name] = w
	}
	return map[string]any{
		"format_version": FormatVersion,
		"family":         "logistic_regression",
		"features":       features.FeatureNames,
		"weights":        weights,
		"bias":           bias,
		"threshold":      threshold,
	}
}

func TestLoadEmbeddedDefault(t *testing.T) {
	m, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, m.FormatVersion)
	assert.Equal(t, features.FeatureNames, m.Features)
	assert.Greater(t, m.Threshold, 0.0)
	assert.Less(t, m.Threshold, 1.0)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/model.json")
	require.ErrorIs(t, err, ErrModelLoad)
}

func TestLoadCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrModelLoad)
}

func TestLoadWrongFormatVersion(t *testing.T) {
	art := flatArtifact(0.1, 0, 0.5)
	art["format_version"] = FormatVersion + 1

	_, err := Load(writeArtifact(t, art))
	require.ErrorIs(t, err, ErrModelLoad)
}

func TestLoadBadThreshold(t *testing.T) {
	for _, threshold := range []float64{0, -0.2, 1, 1.5} {
		art := flatArtifact(0.1, 0, threshold)
		_, err := Load(writeArtifact(t, art))
		require.ErrorIs(t, err, ErrModelLoad, "threshold %v", threshold)
	}
}

func TestLoadMissingWeight(t *testing.T) {
	art := flatArtifact(0.1, 0, 0.5)
	weights := art["weights"].(map[string]float64)
	delete(weights, "entropy")

	_, err := Load(writeArtifact(t, art))
	require.ErrorIs(t, err, ErrModelLoad)
}

func TestPredictSchemaMismatch(t *testing.T) {
	// A model trained on a narrower schema must refuse current vectors.
	art := map[string]any{
		"format_version": FormatVersion,
		"family":         "logistic_regression",
		"features":       []string{"url_length", "entropy"},
		"weights":        map[string]float64{"url_length": 0.1, "entropy": 0.1},
		"bias":           0.0,
		"threshold":      0.5,
	}
	m, err := Load(writeArtifact(t, art))
	require.NoError(t, err)

	c, err := NewClassifier(m, Options{})
	require.NoError(t, err)

	_, err = c.Predict(&features.FeatureVector{})
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestPredictLabelsAndConfidence(t *testing.T) {
	// Zero weights and zero bias give score exactly 0.5 for any vector, so
	// the threshold boundary is easy to probe.
	m, err := Load(writeArtifact(t, flatArtifact(0, 0, 0.5)))
	require.NoError(t, err)

	c, err := NewClassifier(m, Options{})
	require.NoError(t, err)

	v, err := c.Predict(&features.FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, LabelMalicious, v.Label, "score equal to threshold is malicious")
	assert.InDelta(t, 0.5, v.Score, 1e-9)
	assert.InDelta(t, 0.5, v.Confidence, 1e-9)

	// Raising the threshold flips the same score to benign.
	strict, err := NewClassifier(m, Options{Threshold: 0.6})
	require.NoError(t, err)
	v, err = strict.Predict(&features.FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, LabelBenign, v.Label)
	assert.InDelta(t, 0.5, v.Confidence, 1e-9)
}

func TestNewClassifierRejectsBadThreshold(t *testing.T) {
	m, err := Load("")
	require.NoError(t, err)

	for _, threshold := range []float64{-0.1, 1, 2} {
		_, err := NewClassifier(m, Options{Threshold: threshold})
		require.Error(t, err, "threshold %v", threshold)
	}
}

func TestPredictEndToEnd(t *testing.T) {
	m, err := Load("")
	require.NoError(t, err)
	c, err := NewClassifier(m, Options{})
	require.NoError(t, err)
	ex := features.NewExtractor(features.MustDefaultLexicon())

	cases := []struct {
		url   string
		label string
	}{
		{"wikipedia.org", LabelBenign},
		{"http://192.168.1.1/login", LabelMalicious},
		{"https://bit.ly/xYz123", LabelMalicious},
	}
	for _, tc := range cases {
		fv, err := ex.Extract(tc.url)
		require.NoError(t, err, tc.url)

		v, err := c.Predict(fv)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.label, v.Label, tc.url)
		assert.GreaterOrEqual(t, v.Confidence, 0.5, tc.url)
		assert.LessOrEqual(t, v.Confidence, 1.0, tc.url)

		// Score and confidence agree by construction.
		if v.Label == LabelMalicious {
			assert.InDelta(t, v.Score, v.Confidence, 1e-9, tc.url)
		} else {
			assert.InDelta(t, 1-v.Score, v.Confidence, 1e-9, tc.url)
		}
	}
}
