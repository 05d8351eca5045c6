package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "verdict/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantFields []string
	}{
		{
			name:       "invalid input carries field list",
			err:        dErrors.NewInvalidInput("missing fields", "claim", "claim.full_name"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
			wantFields: []string{"claim", "claim.full_name"},
		},
		{
			name:       "not found maps to 404",
			err:        dErrors.New(dErrors.CodeNotFound, "no audit trail"),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "threshold config maps to 500",
			err:        dErrors.New(dErrors.CodeThresholdConfig, "weights must sum to 1"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "threshold_config",
		},
		{
			name:       "unknown errors fall back to internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
		{
			name:       "wrapped domain error keeps its code",
			err:        dErrors.Wrap(dErrors.New(dErrors.CodeConflict, "dup"), dErrors.CodeInternal, "saving failed"),
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, tt.wantCode, response.Error)
			assert.Equal(t, tt.wantFields, response.Fields)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
