package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/linkshield/linkshield-go/internal/classify"
	"github.com/linkshield/linkshield-go/internal/server"
)

func newCheckCmd() *cobra.Command {
	var enrich bool

	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Classify a single URL and print the verdict as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := server.SetupLogger(os.Getenv("LOG_LEVEL"))

			opts := pipelineOptionsFromEnv()
			if enrich {
				opts.EnableWhois = true
			}

			pipeline, err := buildPipeline(opts, logger)
			if err != nil {
				return err
			}

			result, err := pipeline.Classify(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}

			// Non-zero exit for flagged URLs so shell scripts can branch.
			if result.Classification != classify.ClassSafe {
				return &ExitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&enrich, "enrich", false, "run the WHOIS domain-age stage on borderline verdicts")
	return cmd
}

// ExitError carries a process exit code without an error message.
type ExitError struct {
	code int
}

func (e *ExitError) Error() string { return "" }

// Code returns the desired process exit code.
func (e *ExitError) Code() int { return e.code }
