package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeKeyExhausted, http.StatusConflict},
		{CodeCircleLimit, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeValidation, http.StatusBadRequest},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestErrorIs_MatchesByCode(t *testing.T) {
	err := NotFound("circle cir-abc not found")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrForbidden))
}

func TestErrorIs_ThroughWrapping(t *testing.T) {
	inner := KeyExhausted("key DROP2026 has no uses left")
	wrapped := fmt.Errorf("redeeming access key: %w", inner)

	assert.True(t, Is(wrapped, ErrKeyExhausted))

	var domainErr *Error
	require.True(t, As(wrapped, &domainErr))
	assert.Equal(t, CodeKeyExhausted, domainErr.Code)
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, CodeInternal, "storing artifact")

	assert.Equal(t, "storing artifact: disk full", err.Error())
	assert.Equal(t, cause, Unwrap(err))
	assert.True(t, Is(err, ErrInternal))
}

func TestWithDetails_DoesNotMutate(t *testing.T) {
	base := Validation("email is required")
	detailed := base.WithDetails(map[string]string{"field": "email"})

	assert.Nil(t, base.Details)
	assert.NotNil(t, detailed.Details)
	assert.Equal(t, base.Code, detailed.Code)
}

func TestWithCause_KeepsCodeAndMessage(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ErrInternal.WithCause(cause)

	assert.Equal(t, CodeInternal, err.Code)
	assert.Equal(t, cause, Unwrap(err))
	assert.Contains(t, err.Error(), "connection refused")
}
