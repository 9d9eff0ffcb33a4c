package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"conflict", Conflict("taken"), http.StatusConflict},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"unauthorized", Unauthorized("login"), http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("svc: op: %w", Conflict("taken")), http.StatusConflict},
		{"plain", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestSentinelMatchesThroughWrapping(t *testing.T) {
	sentinel := NotFound("Appointment not found")
	wrapped := fmt.Errorf("appointments: cancel: %w", sentinel)
	assert.ErrorIs(t, wrapped, sentinel)
	assert.NotErrorIs(t, wrapped, NotFound("Doctor not found"))
}

func TestMessage(t *testing.T) {
	appErr, ok := As(fmt.Errorf("x: %w", Validation("Please provide a valid name.")))
	require.True(t, ok)
	assert.Equal(t, "Please provide a valid name.", appErr.Message)
	assert.Equal(t, "fallback", Message(errors.New("boom"), "fallback"))
	assert.True(t, IsUserFacing(Forbidden("no")))
	assert.False(t, IsUserFacing(errors.New("boom")))
	assert.Equal(t, "conflict", KindConflict.String())
}
