package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: bad name", ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("definition x: %w", ErrNotFound), http.StatusNotFound},
		{"conflict struct", &ConflictError{Message: "dup"}, http.StatusConflict},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestFromStatusRoundTrip(t *testing.T) {
	for _, sentinel := range []error{ErrValidation, ErrNotFound, ErrUnauthorized, ErrForbidden, ErrConflict} {
		assert.ErrorIs(t, FromStatus(StatusCode(sentinel)), sentinel)
	}
	assert.Nil(t, FromStatus(http.StatusTeapot))
}
