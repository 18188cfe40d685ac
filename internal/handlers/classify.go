package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/linkshield/linkshield-go/internal/classify"
	"github.com/linkshield/linkshield-go/internal/db"
	"github.com/linkshield/linkshield-go/internal/features"
	"github.com/linkshield/linkshield-go/internal/model"
	"github.com/linkshield/linkshield-go/internal/ratelimit"
)

// maxBatchRows caps a single CSV upload.
const maxBatchRows = 500

// batchWorkers bounds concurrent classifications per batch request.
const batchWorkers = 8

// ClassifyHandler serves the classification endpoints.
type ClassifyHandler struct {
	pipeline *classify.Pipeline
	db       *db.DB // may be nil; history is then skipped
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
}

// NewClassifyHandler creates a ClassifyHandler.
func NewClassifyHandler(pipeline *classify.Pipeline, database *db.DB, limiter *ratelimit.Limiter, logger *slog.Logger) *ClassifyHandler {
	return &ClassifyHandler{pipeline: pipeline, db: database, limiter: limiter, logger: logger}
}

type classifyRequest struct {
	URL string `json:"url"`
}

// Classify handles POST /v1/classify.
func (ch *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	if ch.limiter.Check(w, r, "classify") {
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := ch.pipeline.Classify(r.Context(), req.URL)
	if err != nil {
		ch.writeClassifyError(w, req.URL, err)
		return
	}

	if ch.db != nil {
		if _, err := ch.db.RecordScan(r.Context(), result, "api"); err != nil {
			ch.logger.Warn("record scan failed", "err", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// batchEntry is one row of a batch response. Exactly one of Result and Error
// is set.
type batchEntry struct {
	URL    string           `json:"url"`
	Result *classify.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// ClassifyBatch handles POST /v1/classify/batch. It accepts a CSV upload
// (multipart field "file", or the raw body) whose first column holds URLs,
// and classifies the rows concurrently. Per-row failures do not fail the
// batch; they come back as error entries in row order.
func (ch *ClassifyHandler) ClassifyBatch(w http.ResponseWriter, r *http.Request) {
	if ch.limiter.Check(w, r, "batch") {
		return
	}

	urls, err := readBatchURLs(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(urls) == 0 {
		jsonError(w, "no URLs in upload", http.StatusBadRequest)
		return
	}

	entries := make([]batchEntry, len(urls))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchWorkers)

	for i, u := range urls {
		g.Go(func() error {
			result, err := ch.pipeline.Classify(ctx, u)
			if err != nil {
				entries[i] = batchEntry{URL: u, Error: err.Error()}
				return nil
			}
			entries[i] = batchEntry{URL: u, Result: result}
			if ch.db != nil {
				if _, err := ch.db.RecordScan(ctx, result, "batch"); err != nil {
					ch.logger.Warn("record scan failed", "err", err)
				}
			}
			return nil
		})
	}
	g.Wait()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":   len(entries),
		"results": entries,
	})
}

// readBatchURLs pulls URLs from the first CSV column of the upload.
func readBatchURLs(r *http.Request) ([]string, error) {
	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("missing file field")
		}
		defer file.Close()
		src = file
	}

	reader := csv.NewReader(io.LimitReader(src, 1<<20))
	reader.FieldsPerRecord = -1

	var urls []string
	for len(urls) < maxBatchRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New("malformed CSV")
		}
		if len(record) == 0 {
			continue
		}
		u := strings.TrimSpace(record[0])
		if u == "" || strings.EqualFold(u, "url") { // skip blank rows and a header row
			continue
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// writeClassifyError maps pipeline errors onto HTTP statuses. Invalid input
// is the caller's fault; a schema mismatch is a deployment bug.
func (ch *ClassifyHandler) writeClassifyError(w http.ResponseWriter, url string, err error) {
	switch {
	case errors.Is(err, features.ErrInvalidInput):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrSchemaMismatch):
		ch.logger.Error("schema mismatch", "url", url, "err", err)
		jsonError(w, "model schema mismatch", http.StatusInternalServerError)
	default:
		ch.logger.Error("classify failed", "url", url, "err", err)
		jsonError(w, "classification failed", http.StatusInternalServerError)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
