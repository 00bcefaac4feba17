package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_StatusCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInternal, http.StatusInternalServerError},
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindAuthentication, http.StatusUnauthorized},
		{KindVerification, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindTooManyRequests, http.StatusTooManyRequests},
		{KindUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.StatusCode())
		})
	}
}

func TestNewServer(t *testing.T) {
	// Arrange
	cause := errors.New("db down")

	// Act
	err := NewServer(cause)

	// Assert
	var ge *Error
	assert.True(t, errors.As(err, &ge))
	assert.Equal(t, KindInternal, ge.Kind())
	assert.Equal(t, TypeServer, ge.Type())
	assert.Equal(t, "Internal server error", ge.Msg())
	assert.ErrorIs(t, err, cause)
}

func TestNewVerification(t *testing.T) {
	err := NewVerification("Invalid OTP")

	var ge *Error
	assert.True(t, errors.As(err, &ge))
	assert.Equal(t, KindVerification, ge.Kind())
	assert.Equal(t, "Invalid OTP", ge.Error())
	assert.Equal(t, map[string]string{"reason": "Invalid OTP"}, ge.Fields())
}

func TestNewInvalidInput(t *testing.T) {
	t.Run("field pairs", func(t *testing.T) {
		err := NewInvalidInput(nil, "email", "email is required", "otp", "otp must be 6 digits")

		var ge *Error
		assert.True(t, errors.As(err, &ge))
		assert.Equal(t, KindBadRequest, ge.Kind())
		assert.Equal(t, "email is required", ge.Fields()["email"])
		assert.Equal(t, "otp must be 6 digits", ge.Fields()["otp"])
	})

	t.Run("odd pairs become format error", func(t *testing.T) {
		err := NewInvalidInput(nil, "email")

		var ge *Error
		assert.True(t, errors.As(err, &ge))
		assert.Equal(t, "Invalid request body", ge.Msg())
		assert.Nil(t, ge.Fields())
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrap: %w", NewBusiness("dup", KindConflict))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}
