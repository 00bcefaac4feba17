package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 implements Hash with a keyed SHA-256 digest, hex encoded.
// The output is deterministic, so stored hashes can be used as lookup keys.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a new hasher keyed with secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the hex-encoded HMAC of plaintext.
func (s *HMACSHA256) Hash(plaintext string) ([]byte, error) {
	return s.gen(plaintext), nil
}

// Verify reports whether plaintext matches hashed in constant time.
func (s *HMACSHA256) Verify(hashed, plaintext string) bool {
	return subtle.ConstantTimeCompare([]byte(hashed), s.gen(plaintext)) == 1
}

func (s *HMACSHA256) gen(plaintext string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(plaintext))
	sum := h.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
