// Package hash provides one-way hashing for secrets at rest.
//
// Passwords go through a slow, salted hash (bcrypt or Argon2id). Short-lived
// tokens such as OTP digits and refresh tokens go through HMACSHA256, which is
// deterministic so a token can also be looked up by its hash.
package hash
