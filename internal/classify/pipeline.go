// Package classify orchestrates the prediction pipeline: feature extraction,
// the offline-trained model, and optional advisory stages (WHOIS age, LLM
// deep analysis). Each Classify call is stateless; the only shared state is
// the read-only model and lexicon.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/linkshield/linkshield-go/internal/enrich"
	"github.com/linkshield/linkshield-go/internal/features"
	"github.com/linkshield/linkshield-go/internal/model"
)

// borderlineBand is how far below the decision threshold a benign score may
// sit before the WHOIS stage is consulted.
const borderlineBand = 0.15

// Options toggle the advisory stages.
type Options struct {
	EnableWhois        bool
	EnableDeepAnalysis bool
}

// Pipeline runs extraction and classification for single URLs.
type Pipeline struct {
	extractor  *features.Extractor
	classifier *model.Classifier
	opts       Options
	logger     *slog.Logger

	// Deep-analysis client, created once per process. Nil when the stage
	// is disabled.
	claude      *anthropic.Client
	claudeModel string
}

// NewPipeline wires the extractor and classifier together.
func NewPipeline(ex *features.Extractor, cl *model.Classifier, opts Options, logger *slog.Logger) *Pipeline {
	p := &Pipeline{extractor: ex, classifier: cl, opts: opts, logger: logger}
	if opts.EnableDeepAnalysis {
		client := anthropic.NewClient()
		p.claude = &client
		p.claudeModel = os.Getenv("LINKSHIELD_CLAUDE_MODEL")
		if p.claudeModel == "" {
			p.claudeModel = defaultClaudeModel
		}
	}
	return p
}

// Classify runs the full pipeline for one URL.
//
// features.ErrInvalidInput and model.ErrSchemaMismatch propagate unchanged:
// both are deterministic caller/deployment bugs, so there is nothing to
// retry or recover locally.
func (p *Pipeline) Classify(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()

	fv, err := p.extractor.Extract(rawURL)
	if err != nil {
		return nil, err
	}

	verdict, err := p.classifier.Predict(fv)
	if err != nil {
		// A schema mismatch means the deployed model and binary disagree
		// about the feature schema. Log loudly, never coerce.
		p.logger.Error("classifier rejected feature vector", "url", rawURL, "err", err)
		return nil, err
	}

	result := &Result{
		URL:        rawURL,
		Label:      verdict.Label,
		Confidence: verdict.Confidence,
		Score:      verdict.Score,
		Signals:    fv.Signals(),
		Attack:     fv.AttackContext(),
		Classifier: "model",
	}
	if verdict.Label == model.LabelMalicious {
		result.Classification = ClassMalicious
	} else {
		result.Classification = ClassSafe
	}
	result.Reason = summarize(result)

	// Advisory stage 1: WHOIS domain age, only for benign verdicts close to
	// the decision boundary.
	if p.opts.EnableWhois && result.Classification == ClassSafe &&
		verdict.Score >= p.classifier.Threshold()-borderlineBand {
		if host := hostOf(rawURL); host != "" && fv.HasIPHost == 0 {
			if info := enrich.Whois(ctx, host, p.logger); info != nil {
				result.Domain = info
				if info.Young() {
					result.Classification = ClassSuspicious
					result.Classifier = "whois"
					result.Reason = fmt.Sprintf("borderline score and domain registered %d days ago", info.AgeDays)
				}
			}
		}
	}

	// Advisory stage 2: LLM deep analysis of anything flagged. It can
	// escalate SUSPICIOUS or clear it, but never overturns the model's own
	// malicious verdict.
	if p.opts.EnableDeepAnalysis && result.Classification != ClassSafe {
		if deep := p.deepAnalyze(ctx, rawURL); deep != nil {
			switch deep.Classification {
			case ClassMalicious:
				result.Classification = ClassMalicious
				result.Classifier = deep.Classifier
				result.Reason = deep.Reason
				if deep.Confidence > result.Confidence {
					result.Confidence = deep.Confidence
				}
			case ClassSafe:
				if result.Label == model.LabelBenign {
					result.Classification = ClassSafe
					result.Classifier = deep.Classifier
					result.Reason = deep.Reason
				}
			}
		}
	}

	result.ResponseTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	return result, nil
}

// summarize builds the one-line reason shown next to a verdict.
func summarize(r *Result) string {
	if len(r.Signals) == 0 {
		if r.Classification == ClassSafe {
			return "no suspicious signs"
		}
		return fmt.Sprintf("model score %.2f", r.Score)
	}
	return strings.Join(r.Signals, "; ")
}

// hostOf returns the hostname using the same normalization the extractor
// applies, or "" if the URL does not parse.
func hostOf(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
