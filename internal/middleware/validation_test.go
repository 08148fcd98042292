package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/szooyang/ai-project01/internal/errors"
)

type rankingParams struct {
	Date  string `query:"date" validate:"required,yyyymmdd"`
	Line  string `query:"line" validate:"required"`
	Limit int    `query:"limit" validate:"gte=0,lte=500"`
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Struct(rankingParams{Date: "20251001", Line: "2호선"}))

	tests := []struct {
		name   string
		params rankingParams
		fields []string
	}{
		{name: "missing everything", params: rankingParams{}, fields: []string{"date", "line"}},
		{name: "bad calendar date", params: rankingParams{Date: "20251301", Line: "2호선"}, fields: []string{"date"}},
		{name: "dashed date", params: rankingParams{Date: "2025-10-01", Line: "2호선"}, fields: []string{"date"}},
		{name: "limit too large", params: rankingParams{Date: "20251001", Line: "2호선", Limit: 501}, fields: []string{"limit"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.params)
			require.Error(t, err)

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			var fields []string
			for _, e := range details.Errors {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestValidator_Messages(t *testing.T) {
	err := NewValidator().Struct(rankingParams{Date: "x", Line: "2호선"})

	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr))
	details := apiErr.Details.(apierrors.ValidationErrors)
	assert.Equal(t, "date must be a date in YYYYMMDD form", details.Errors[0].Message)
}
