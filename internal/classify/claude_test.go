package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineDeepAnalysisClientGating(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("LINKSHIELD_CLAUDE_MODEL", "")

	p := newTestPipeline(t, Options{})
	assert.Nil(t, p.claude, "no client without the deep-analysis stage")

	p = newTestPipeline(t, Options{EnableDeepAnalysis: true})
	require.NotNil(t, p.claude, "client is created once with the pipeline")
	assert.Equal(t, defaultClaudeModel, p.claudeModel)

	t.Setenv("LINKSHIELD_CLAUDE_MODEL", "claude-opus-4-1")
	p = newTestPipeline(t, Options{EnableDeepAnalysis: true})
	assert.Equal(t, "claude-opus-4-1", p.claudeModel)
}

func TestParseJSONResult(t *testing.T) {
	r := parseJSONResult(`{"classification":"MALICIOUS","confidence":0.9,"reason":"typosquatting"}`)
	require.NotNil(t, r)
	assert.Equal(t, ClassMalicious, r.Classification)
	assert.Equal(t, 0.9, r.Confidence)

	// JSON buried in surrounding prose still parses.
	r = parseJSONResult("Here is my analysis:\n{\"classification\":\"SAFE\",\"confidence\":0.8,\"reason\":\"legitimate\"}\nLet me know.")
	require.NotNil(t, r)
	assert.Equal(t, ClassSafe, r.Classification)

	assert.Nil(t, parseJSONResult("not json at all"))
	assert.Nil(t, parseJSONResult(`{"confidence":0.5}`))
}
