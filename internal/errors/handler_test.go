package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/shared/testutil"
)

func newRequestWithID(method, path, reqID string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	ctx := context.WithValue(r.Context(), middleware.RequestIDKey, reqID)
	return r.WithContext(ctx)
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
	}{
		{
			name:       "nil error writes nothing",
			err:        nil,
			wantStatus: http.StatusOK,
		},
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "ingestion error",
			err:        NewIngestionError("invalid timestamp on row 3", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeIngestion,
			wantTitle:  "Malformed Input File",
		},
		{
			name:       "wrapped filter validation error",
			err:        fmt.Errorf("report: %w", NewFilterValidationError("max_price", "max_price must be numeric", nil)),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Invalid Filter",
		},
		{
			name:       "aggregation invariant error",
			err:        NewAggregationError("total tickets is zero"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeAggregation,
			wantTitle:  "Aggregation Failed",
		},
		{
			name:       "normalizer type error is internal",
			err:        NewNormalizerTypeError(struct{}{}),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
		{
			name:       "upload rejected api error",
			err:        New(http.StatusBadRequest, CodeUploadRejected, "No file part"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUpload,
			wantTitle:  "Bad Request",
		},
		{
			name:       "generic error",
			err:        fmt.Errorf("something went wrong"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logHandler := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := newRequestWithID(http.MethodPost, "/api/reports/upload", "test-request-id")

			handler.HandleError(w, r, tt.err)

			if tt.err == nil {
				assert.Equal(t, tt.wantStatus, w.Code)
				assert.Zero(t, w.Body.Len())
				return
			}

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantTitle, body["title"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "test-request-id", body["trace_id"])
			assert.NotContains(t, body, "stack")

			assert.True(t, logHandler.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_FilterErrorNamesField(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodPost, "/upload", nil)

	problem := handler.ErrorToProblem(NewFilterValidationError("start_date", "start_date must be YYYY-MM-DD", nil), r)

	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, "start_date", problem.Extensions["field"])
	assert.Equal(t, string(ErrTypeFilter), problem.Extensions["error_type"])
	assert.Equal(t, "start_date must be YYYY-MM-DD", problem.Detail)
}

func TestErrorHandler_IngestionErrorCarriesLocation(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodPost, "/upload", nil)

	err := NewIngestionError("Price is not a number", nil).
		WithContext("row", 5).
		WithContext("column", "Price")
	problem := handler.ErrorToProblem(err, r)

	assert.Equal(t, 5, problem.Extensions["row"])
	assert.Equal(t, "Price", problem.Extensions["column"])
}

func TestErrorHandler_NormalizerErrorHidesMessage(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodPost, "/upload", nil)

	problem := handler.ErrorToProblem(NewNormalizerTypeError(complex(1, 2)), r)

	assert.Equal(t, http.StatusInternalServerError, problem.Status)
	assert.NotContains(t, problem.Detail, "complex128")
}

func TestErrorHandler_MaxBytesError(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodPost, "/upload", nil)

	problem := handler.ErrorToProblem(fmt.Errorf("parse form: %w", &http.MaxBytesError{Limit: 1024}), r)

	assert.Equal(t, http.StatusRequestEntityTooLarge, problem.Status)
	assert.Equal(t, TypePayloadTooLarge, problem.Type)
	assert.Contains(t, problem.Detail, "1024")
}

func TestErrorHandler_apiErrorToProblem(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		wantType string
	}{
		{"validation", New(http.StatusBadRequest, CodeValidationFailed, "Request validation failed"), TypeValidation},
		{"not found", New(http.StatusNotFound, CodeNotFound, "Resource not found"), TypeNotFound},
		{"upload rejected", New(http.StatusBadRequest, CodeUploadRejected, "Only CSV files are allowed"), TypeUpload},
		{"payload too large", PayloadTooLarge("too big", 10, 20), TypePayloadTooLarge},
		{"rate limit", RateLimitExceeded(1), TypeRateLimit},
		{"service unavailable", New(http.StatusServiceUnavailable, CodeServiceUnavailable, "down"), TypeServiceDown},
		{"unknown code", New(http.StatusInternalServerError, "SOMETHING_ELSE", "oops"), TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)
			r := httptest.NewRequest(http.MethodGet, "/test", nil)

			problem := handler.apiErrorToProblem(tt.apiError, r)

			assert.Equal(t, tt.apiError.StatusCode, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, http.StatusText(tt.apiError.StatusCode), problem.Title)
			assert.Equal(t, tt.apiError.Message, problem.Detail)
			assert.Equal(t, tt.apiError.ErrorCode, problem.Extensions["error_code"])
		})
	}
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	tests := []struct {
		name         string
		recovered    interface{}
		includeStack bool
	}{
		{name: "string panic with stack", recovered: "boom", includeStack: true},
		{name: "error panic without stack", recovered: fmt.Errorf("boom"), includeStack: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logHandler := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, tt.includeStack)

			w := httptest.NewRecorder()
			r := newRequestWithID(http.MethodGet, "/test", "panic-id")

			handler.HandlePanic(w, r, tt.recovered)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, TypeInternal, body["type"])
			assert.Equal(t, "panic-id", body["trace_id"])
			if tt.includeStack {
				assert.Equal(t, "boom", body["panic"])
				assert.Contains(t, body, "stack")
			} else {
				assert.NotContains(t, body, "panic")
			}
			assert.True(t, logHandler.ContainsMessage("panic recovered"))
		})
	}
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.True(t, strings.Contains(decodeProblem(t, w)["detail"].(string), "DELETE"))
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Invalid Filter", "", "/upload").
		WithExtension("field", "min_price")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "min_price", body["field"])
	assert.Equal(t, "/upload", body["instance"])
	assert.NotContains(t, body, "detail")
}

func TestErrorHandlerConcurrency(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/upload", nil)
			handler.HandleError(w, r, NewIngestionError(fmt.Sprintf("row %d", i), nil))
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		}(i)
	}
	wg.Wait()
}
