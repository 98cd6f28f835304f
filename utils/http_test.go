package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	err := WriteJSON(rec, http.StatusOK, map[string]string{"status": "OK"})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name      string
		write     func(http.ResponseWriter) error
		wantCode  int
		wantError string
	}{
		{"bad request", func(w http.ResponseWriter) error {
			return WriteBadRequest(w, "bad input", nil)
		}, http.StatusBadRequest, "bad_request"},
		{"not found", func(w http.ResponseWriter) error {
			return WriteNotFound(w, "")
		}, http.StatusNotFound, "not_found"},
		{"too many requests", func(w http.ResponseWriter) error {
			return WriteTooManyRequests(w, "", nil)
		}, http.StatusTooManyRequests, "rate_limit_exceeded"},
		{"service unavailable", func(w http.ResponseWriter) error {
			return WriteServiceUnavailable(w, "")
		}, http.StatusServiceUnavailable, "service_unavailable"},
		{"internal server error", func(w http.ResponseWriter) error {
			return WriteInternalServerError(w, "")
		}, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			assert.NoError(t, tt.write(rec))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantError)
		})
	}
}
