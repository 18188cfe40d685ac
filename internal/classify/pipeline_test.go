package classify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkshield/linkshield-go/internal/features"
	"github.com/linkshield/linkshield-go/internal/model"
)

func newTestPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()

	lex, err := features.LoadLexicon("")
	require.NoError(t, err)
	m, err := model.Load("")
	require.NoError(t, err)
	classifier, err := model.NewClassifier(m, model.Options{})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipeline(features.NewExtractor(lex), classifier, opts, logger)
}

func TestClassifyEndToEnd(t *testing.T) {
	p := newTestPipeline(t, Options{})
	ctx := context.Background()

	cases := []struct {
		url            string
		classification string
		label          string
	}{
		{"wikipedia.org", ClassSafe, model.LabelBenign},
		{"http://192.168.1.1/login", ClassMalicious, model.LabelMalicious},
		{"https://bit.ly/xYz123", ClassMalicious, model.LabelMalicious},
	}
	for _, tc := range cases {
		result, err := p.Classify(ctx, tc.url)
		require.NoError(t, err, tc.url)

		assert.Equal(t, tc.classification, result.Classification, tc.url)
		assert.Equal(t, tc.label, result.Label, tc.url)
		assert.Equal(t, tc.url, result.URL, tc.url)
		assert.Equal(t, "model", result.Classifier, tc.url)
		assert.GreaterOrEqual(t, result.Confidence, 0.5, tc.url)
		assert.NotEmpty(t, result.Reason, tc.url)
		assert.GreaterOrEqual(t, result.ResponseTimeMs, 0.0, tc.url)
	}
}

func TestClassifyNeverSuspiciousWithoutAdvisoryStages(t *testing.T) {
	p := newTestPipeline(t, Options{})

	for _, raw := range []string{
		"wikipedia.org",
		"http://192.168.1.1/login",
		"http://secure-login-verify.example.com/account//update",
	} {
		result, err := p.Classify(context.Background(), raw)
		require.NoError(t, err)
		assert.NotEqual(t, ClassSuspicious, result.Classification, raw)
	}
}

func TestClassifyInvalidInput(t *testing.T) {
	p := newTestPipeline(t, Options{})

	for _, raw := range []string{"", "   ", "http://"} {
		_, err := p.Classify(context.Background(), raw)
		require.ErrorIs(t, err, features.ErrInvalidInput, "input %q", raw)
	}
}

func TestClassifySignalsSurface(t *testing.T) {
	p := newTestPipeline(t, Options{})

	result, err := p.Classify(context.Background(), "http://192.168.1.1/login")
	require.NoError(t, err)
	assert.Contains(t, result.Signals, "IP address used as host")
	assert.Contains(t, result.Reason, "IP address")
	require.NotNil(t, result.Attack)
	assert.Contains(t, result.Attack.AttackTypes, "Direct IP attacks / Malware")
	assert.Contains(t, result.Attack.Layers, "Network Layer")

	result, err = p.Classify(context.Background(), "wikipedia.org")
	require.NoError(t, err)
	assert.Empty(t, result.Signals)
	assert.Nil(t, result.Attack)
	assert.Equal(t, "no suspicious signs", result.Reason)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "example.com", hostOf("EXAMPLE.com/path"))
	assert.Equal(t, "bit.ly", hostOf("https://bit.ly/abc"))
	assert.Equal(t, "", hostOf("http://"))
}
