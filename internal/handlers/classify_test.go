package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkshield/linkshield-go/internal/classify"
	"github.com/linkshield/linkshield-go/internal/features"
	"github.com/linkshield/linkshield-go/internal/model"
	"github.com/linkshield/linkshield-go/internal/ratelimit"
)

func newTestClassifyHandler(t *testing.T) *ClassifyHandler {
	t.Helper()

	lex, err := features.LoadLexicon("")
	require.NoError(t, err)
	m, err := model.Load("")
	require.NoError(t, err)
	classifier, err := model.NewClassifier(m, model.Options{})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := classify.NewPipeline(features.NewExtractor(lex), classifier, classify.Options{}, logger)
	return NewClassifyHandler(pipeline, nil, ratelimit.New(), logger)
}

func TestClassifyEndpoint(t *testing.T) {
	ch := newTestClassifyHandler(t)

	body := strings.NewReader(`{"url":"wikipedia.org"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/classify", body)
	rec := httptest.NewRecorder()
	ch.Classify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result classify.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, classify.ClassSafe, result.Classification)
	assert.Equal(t, "wikipedia.org", result.URL)
}

func TestClassifyEndpointMalicious(t *testing.T) {
	ch := newTestClassifyHandler(t)

	body := strings.NewReader(`{"url":"http://192.168.1.1/login"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/classify", body)
	rec := httptest.NewRecorder()
	ch.Classify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result classify.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, classify.ClassMalicious, result.Classification)
	assert.NotEmpty(t, result.Signals)
	require.NotNil(t, result.Attack)
	assert.NotEmpty(t, result.Attack.AttackTypes)
	assert.NotEmpty(t, result.Attack.Prevention)
}

func TestClassifyEndpointBadRequests(t *testing.T) {
	ch := newTestClassifyHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"url":`},
		{"empty URL", `{"url":""}`},
		{"no host", `{"url":"http://"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			ch.Classify(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestClassifyRateLimited(t *testing.T) {
	ch := newTestClassifyHandler(t)
	bucket := ratelimit.DefaultBuckets["classify"]

	var rec *httptest.ResponseRecorder
	for i := 0; i <= bucket.MaxRequests; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader(`{"url":"wikipedia.org"}`))
		rec = httptest.NewRecorder()
		ch.Classify(rec, req)
	}

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

type batchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		URL    string           `json:"url"`
		Result *classify.Result `json:"result"`
		Error  string           `json:"error"`
	} `json:"results"`
}

func TestClassifyBatchRawCSV(t *testing.T) {
	ch := newTestClassifyHandler(t)

	csvBody := "url\nwikipedia.org\nhttp://192.168.1.1/login\n\nhttp://\n"
	req := httptest.NewRequest(http.MethodPost, "/v1/classify/batch", strings.NewReader(csvBody))
	rec := httptest.NewRecorder()
	ch.ClassifyBatch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Count)

	// Row order is preserved: header and blank line skipped.
	assert.Equal(t, "wikipedia.org", resp.Results[0].URL)
	assert.Equal(t, classify.ClassSafe, resp.Results[0].Result.Classification)
	assert.Equal(t, classify.ClassMalicious, resp.Results[1].Result.Classification)

	// The unparseable row fails alone without failing the batch.
	assert.Nil(t, resp.Results[2].Result)
	assert.NotEmpty(t, resp.Results[2].Error)
}

func TestClassifyBatchMultipart(t *testing.T) {
	ch := newTestClassifyHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "urls.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("https://bit.ly/xYz123\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/classify/batch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ch.ClassifyBatch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, classify.ClassMalicious, resp.Results[0].Result.Classification)
}

func TestClassifyBatchEmptyUpload(t *testing.T) {
	ch := newTestClassifyHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/classify/batch", strings.NewReader("url\n\n"))
	rec := httptest.NewRecorder()
	ch.ClassifyBatch(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
