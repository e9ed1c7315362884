package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NotFound("appointment", nil), http.StatusNotFound},
		{Validation("bad input", nil), http.StatusBadRequest},
		{InvalidAmount("wrong amount"), http.StatusBadRequest},
		{InvalidTransition("already Done"), http.StatusConflict},
		{PaymentRequired("pay first"), http.StatusPaymentRequired},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFound("appointment", nil))
	assert.True(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(err, ErrValidation))
	assert.False(t, IsCode(errors.New("plain"), ErrNotFound))
	assert.False(t, IsCode(nil, ErrNotFound))
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := errors.New("no rows")
	err := NotFound("appointment", cause)
	assert.Contains(t, err.Error(), "appointment not found")
	assert.Contains(t, err.Error(), "no rows")
	assert.ErrorIs(t, err, cause)
}
