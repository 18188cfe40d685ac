// Package cli wires the linkshield commands: serve (HTTP server), check
// (single URL), and batch (CSV file).
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/linkshield/linkshield-go/internal/classify"
	"github.com/linkshield/linkshield-go/internal/features"
	"github.com/linkshield/linkshield-go/internal/model"
)

// NewRoot builds the root command.
func NewRoot(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "linkshield",
		Short:         "Classify URLs as malicious or benign",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Optional .env for local development; missing file is fine.
			_ = godotenv.Load()
		},
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newBatchCmd())
	return root
}

// buildPipeline loads the lexicon and model per the environment and
// assembles the classification pipeline. A model load failure is fatal by
// contract: callers must not serve without a model.
func buildPipeline(opts classify.Options, logger *slog.Logger) (*classify.Pipeline, error) {
	lex, err := features.LoadLexicon(os.Getenv("LINKSHIELD_LEXICON"))
	if err != nil {
		return nil, err
	}

	m, err := model.Load(os.Getenv("LINKSHIELD_MODEL"))
	if err != nil {
		return nil, err
	}

	var clOpts model.Options
	if raw := os.Getenv("LINKSHIELD_THRESHOLD"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("LINKSHIELD_THRESHOLD: %w", err)
		}
		clOpts.Threshold = t
	}

	classifier, err := model.NewClassifier(m, clOpts)
	if err != nil {
		return nil, err
	}

	return classify.NewPipeline(features.NewExtractor(lex), classifier, opts, logger), nil
}

// pipelineOptionsFromEnv reads the advisory-stage toggles.
func pipelineOptionsFromEnv() classify.Options {
	return classify.Options{
		EnableWhois:        os.Getenv("LINKSHIELD_ENRICH") == "1",
		EnableDeepAnalysis: os.Getenv("ANTHROPIC_API_KEY") != "",
	}
}
