package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("illegal byte sequence")

	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantPrefix string
		unreadable bool
		schema     bool
	}{
		{
			name:       "data unreadable",
			err:        NewDataUnreadableError("data.csv", []string{"cp949", "utf-8-sig"}, cause),
			wantType:   ErrTypeDataUnreadable,
			wantPrefix: "[DATA_UNREADABLE] cannot read data.csv (tried cp949, utf-8-sig)",
			unreadable: true,
		},
		{
			name:       "data unreadable without encodings",
			err:        NewDataUnreadableError("missing.csv", nil, cause),
			wantType:   ErrTypeDataUnreadable,
			wantPrefix: "[DATA_UNREADABLE] cannot read missing.csv",
			unreadable: true,
		},
		{
			name:       "schema violation",
			err:        NewSchemaViolationError("missing column 역명", nil),
			wantType:   ErrTypeSchemaViolation,
			wantPrefix: "[SCHEMA_VIOLATION] missing column 역명",
			schema:     true,
		},
		{
			name:       "storage",
			err:        NewStorageError("cannot write ranking.csv", cause),
			wantType:   ErrTypeStorage,
			wantPrefix: "[STORAGE] cannot write ranking.csv: illegal byte sequence",
		},
		{
			name:       "config",
			err:        NewConfigError("dataset.encodings", nil),
			wantType:   ErrTypeConfig,
			wantPrefix: "[CONFIG] dataset.encodings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Contains(t, tt.err.Error(), tt.wantPrefix)
			assert.Equal(t, tt.unreadable, IsDataUnreadable(tt.err))
			assert.Equal(t, tt.schema, IsSchemaViolation(tt.err))

			wrapped := fmt.Errorf("load: %w", tt.err)
			assert.Equal(t, tt.unreadable, IsDataUnreadable(wrapped))
			assert.Equal(t, tt.schema, IsSchemaViolation(wrapped))
		})
	}
}

func TestAppError_UnwrapAndContext(t *testing.T) {
	cause := errors.New("boom")
	err := NewDataUnreadableError("x.csv", []string{"cp949"}, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "x.csv", err.Context["path"])
	assert.Equal(t, []string{"cp949"}, err.Context["encodings"])

	var appErr *AppError
	require.ErrorAs(t, fmt.Errorf("wrap: %w", err), &appErr)
	assert.Same(t, err, appErr)
}

func TestAPIError_WithMessage(t *testing.T) {
	original := ErrDataUnreadable.Message
	err := ErrDataUnreadable.WithMessage("cannot read a.csv")

	assert.Equal(t, "cannot read a.csv", err.Error())
	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
	assert.Equal(t, CodeDataUnreadable, err.ErrorCode)
	assert.Equal(t, original, ErrDataUnreadable.Message)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("date", "must be YYYYMMDD")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, CodeValidationFailed, err.ErrorCode)
	assert.Equal(t, ValidationError{Field: "date", Message: "must be YYYYMMDD"}, err.Details)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusUnprocessableEntity, TypeSchemaViolation, "Schema Violation", "bad date", "/api/ridership/options").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeSchemaViolation, decoded["type"])
	assert.Equal(t, float64(422), decoded["status"])
	assert.Equal(t, "bad date", decoded["detail"])
	assert.Equal(t, "abc", decoded["trace_id"])
}

func TestProblemDetails_ExtensionsCannotOverrideStatus(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "").
		WithExtension("status", 200)

	data, err := json.Marshal(problem)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":404`)
	assert.NotContains(t, string(data), `"detail"`)
}
