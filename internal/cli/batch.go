package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/linkshield/linkshield-go/internal/classify"
	"github.com/linkshield/linkshield-go/internal/server"
)

func newBatchCmd() *cobra.Command {
	var (
		output  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch <file.csv>",
		Short: "Classify every URL in a CSV file (first column) and write results as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := server.SetupLogger(os.Getenv("LOG_LEVEL"))

			pipeline, err := buildPipeline(pipelineOptionsFromEnv(), logger)
			if err != nil {
				return err
			}

			urls, err := readCSVURLs(args[0])
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return fmt.Errorf("%s: no URLs found", args[0])
			}

			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			type row struct {
				url    string
				result *classify.Result
				err    error
			}
			rows := make([]row, len(urls))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(workers)
			for i, u := range urls {
				g.Go(func() error {
					result, err := pipeline.Classify(ctx, u)
					rows[i] = row{url: u, result: result, err: err}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			w := csv.NewWriter(out)
			w.Write([]string{"url", "classification", "confidence", "score", "reason", "attack_types", "prevention", "layer"})
			for _, r := range rows {
				if r.err != nil {
					w.Write([]string{r.url, "ERROR", "", "", r.err.Error(), "N/A", "N/A", "N/A"})
					continue
				}
				attackTypes, prevention, layers := "N/A", "N/A", "N/A"
				if a := r.result.Attack; a != nil {
					attackTypes = strings.Join(a.AttackTypes, "; ")
					prevention = strings.Join(a.Prevention, "; ")
					layers = strings.Join(a.Layers, "; ")
				}
				w.Write([]string{
					r.url,
					r.result.Classification,
					strconv.FormatFloat(r.result.Confidence, 'f', 4, 64),
					strconv.FormatFloat(r.result.Score, 'f', 4, 64),
					r.result.Reason,
					attackTypes,
					prevention,
					layers,
				})
			}
			w.Flush()
			return w.Error()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write results to a file instead of stdout")
	cmd.Flags().IntVar(&workers, "workers", 8, "number of URLs classified concurrently")
	return cmd
}

// readCSVURLs reads the first column of a CSV file, skipping blank rows and
// a leading "url" header.
func readCSVURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var urls []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(record) == 0 {
			continue
		}
		u := strings.TrimSpace(record[0])
		if u == "" || (len(urls) == 0 && strings.EqualFold(u, "url")) {
			continue
		}
		urls = append(urls, u)
	}
	return urls, nil
}
