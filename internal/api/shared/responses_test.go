package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs swaps the default logger for one writing to a buffer and
// restores it when the test finishes.
func captureLogs(t *testing.T) *strings.Builder {
	t.Helper()

	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	old := slog.Default()
	slog.SetDefault(logger)
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestRespondWithJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]interface{}{"id": 7, "title": "write report"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["id"])
	assert.Equal(t, "write report", body["title"])
}

type circular struct {
	Self *circular
}

func TestRespondWithJSON_EncodingFailure(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()

	data := &circular{}
	data.Self = data
	RespondWithJSON(w, req, http.StatusOK, data)

	// Status is already committed; the failure only shows up in logs.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "failed to encode JSON response")
}

func TestRespondWithError(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, "trace-abc123")
	req := httptest.NewRequest(http.MethodGet, "/tasks/9", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusNotFound, "Task not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Task not found", body.Detail)
	assert.Equal(t, "trace-abc123", body.TraceID)
}

func TestRespondWithError_NoTraceID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusUnauthorized, "Authorization header required")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Authorization header required", body.Detail)
	assert.Empty(t, body.TraceID)

	// trace_id must be omitted from the wire format entirely.
	assert.NotContains(t, w.Body.String(), "trace_id")
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		detail    string
		err       error
		wantLevel string
		elevate   bool
	}{
		{
			name:      "server error logs at ERROR",
			status:    http.StatusInternalServerError,
			detail:    "An internal error occurred",
			err:       errors.New("pq: connection reset"),
			wantLevel: "ERROR",
		},
		{
			name:      "client error logs at DEBUG",
			status:    http.StatusBadRequest,
			detail:    "Invalid sort_by field.",
			err:       errors.New("invalid sort field"),
			wantLevel: "DEBUG",
		},
		{
			name:      "elevated client error logs at WARN",
			status:    http.StatusUnauthorized,
			detail:    "Incorrect email or password",
			err:       errors.New("invalid credentials"),
			wantLevel: "WARN",
			elevate:   true,
		},
		{
			name:      "rate limit logs at WARN",
			status:    http.StatusTooManyRequests,
			detail:    "Too many requests",
			err:       errors.New("limit exhausted"),
			wantLevel: "WARN",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := captureLogs(t)

			ctx := context.WithValue(context.Background(), TraceIDKey, "trace-xyz")
			req := httptest.NewRequest(http.MethodPost, "/login", nil).WithContext(ctx)
			w := httptest.NewRecorder()

			if tc.elevate {
				RespondWithErrorAndLog(w, req, tc.status, tc.detail, tc.err, WithElevatedLogLevel())
			} else {
				RespondWithErrorAndLog(w, req, tc.status, tc.detail, tc.err)
			}

			assert.Equal(t, tc.status, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.detail, body.Detail)
			assert.Equal(t, "trace-xyz", body.TraceID)

			logOutput := buf.String()
			assert.Contains(t, logOutput, "level="+tc.wantLevel)
			assert.Contains(t, logOutput, "trace_id=trace-xyz")
			assert.Contains(t, logOutput, "error_type=")
		})
	}
}

func TestRespondWithErrorAndLog_RedactsError(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()

	err := errors.New("dial postgres://app:hunter2@db:5432/tasks refused")
	RespondWithErrorAndLog(w, req, http.StatusInternalServerError, "An internal error occurred", err)

	logOutput := buf.String()
	assert.NotContains(t, logOutput, "hunter2")
	assert.Contains(t, logOutput, "REDACTED_CREDENTIAL")

	// The raw error never reaches the response body.
	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.Contains(t, w.Body.String(), "An internal error occurred")
}
