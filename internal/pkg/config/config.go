// Package config exposes typed, read-only access to process configuration.
package config

import (
	"io"
	"time"
)

// Config retrieves configuration values by dotted key, e.g.
// "modules.account.otp_expiry_minutes". Missing keys yield zero values.
type Config interface {
	io.Closer

	// GetSecond, GetMinute, GetHour and GetDay read an integer and scale it
	// to a duration in the named unit.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration

	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray splits "a,b,c" into trimmed, non-empty elements.
	GetArray(key string) []string

	// GetMap parses "k1:v1,k2:v2" pairs.
	GetMap(key string) map[string]string
}
