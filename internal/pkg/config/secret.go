package config

import (
	"errors"
	"fmt"
	"strings"
)

// placeholderPrefix marks sample values that must be replaced before deploying.
const placeholderPrefix = "change-me"

var (
	ErrSecretMissing     = errors.New("secret is not set")
	ErrSecretPlaceholder = errors.New("secret still holds a placeholder value")
)

// RequireSecrets checks that every key holds a real secret, neither empty
// nor a sample value. All offending keys are reported together.
func RequireSecrets(cfg Config, keys ...string) error {
	var errs []error
	for _, key := range keys {
		v := strings.TrimSpace(cfg.GetString(key))
		switch {
		case v == "":
			errs = append(errs, fmt.Errorf("%s: %w", key, ErrSecretMissing))
		case strings.HasPrefix(strings.ToLower(v), placeholderPrefix):
			errs = append(errs, fmt.Errorf("%s: %w", key, ErrSecretPlaceholder))
		}
	}
	return errors.Join(errs...)
}
