package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"Email":             "email",
		"VerificationToken": "verification_token",
		"UserID":            "user_id",
		"HTTPServer":        "http_server",
		"OTPCode":           "otp_code",
		"NewPassword":       "new_password",
	}

	for in, want := range tests {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}
