package classify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

const defaultClaudeModel = "claude-haiku-4-5"

const deepAnalysisPrompt = `You are a URL threat analyst. A heuristic model flagged the URL below. Analyze it carefully and respond with a JSON object:
{"classification": "SAFE" | "SUSPICIOUS" | "MALICIOUS", "confidence": 0.0-1.0, "reason": "brief explanation"}

Consider typosquatting, brand impersonation, obfuscation, and redirect tricks. Only respond with the JSON object, no other text.`

// deepAnalyze asks Claude for a second opinion on a flagged URL. Returns nil
// when the stage is disabled or the call fails — the caller keeps the model
// verdict in that case.
func (p *Pipeline) deepAnalyze(ctx context.Context, rawURL string) *Result {
	if p.claude == nil {
		return nil
	}

	start := time.Now()
	message, err := p.claude.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.claudeModel),
		MaxTokens: 300,
		System: []anthropic.TextBlockParam{
			{Text: deepAnalysisPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(rawURL)),
		},
	})
	elapsed := float64(time.Since(start).Milliseconds())

	if err != nil || len(message.Content) == 0 {
		return nil
	}

	result := parseJSONResult(strings.TrimSpace(message.Content[0].Text))
	if result == nil {
		return nil
	}
	result.Classifier = "claude"
	result.ResponseTimeMs = elapsed
	return result
}

// parseJSONResult extracts a Result from LLM output that may contain extra
// text around the JSON.
func parseJSONResult(content string) *Result {
	var r Result
	if err := json.Unmarshal([]byte(content), &r); err == nil && r.Classification != "" {
		return &r
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &r); err == nil && r.Classification != "" {
			return &r
		}
	}
	return nil
}
