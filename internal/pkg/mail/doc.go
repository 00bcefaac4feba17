// Package mail sends email messages.
//
// Usecases depend on the Mail interface and the provider-agnostic Message.
// SMTP delivers through a relay; Log only writes the envelope to slog and is
// meant for local runs where no relay exists.
package mail
