// Package clock provides a tiny time abstraction.
//
// Business logic depends on Clocker instead of calling time.Now directly, so
// expiry, cooldown and rate-limit windows can be driven with Frozen in tests.
package clock
