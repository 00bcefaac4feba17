// Package uid generates identifiers: snowflake numbers for primary keys,
// UUIDv7 strings for correlation, and random hex strings for opaque tokens.
package uid

// NumberID generates unique int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
