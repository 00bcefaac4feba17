package uid

import (
	"crypto/rand"
	"encoding/hex"
)

// Hex generates cryptographically random, hex-encoded strings of a fixed
// byte length. The output is twice the byte length in characters.
type Hex struct {
	size int
}

// NewHex returns a generator producing size random bytes per value.
func NewHex(size int) *Hex {
	if size <= 0 {
		size = 32
	}
	return &Hex{size: size}
}

// Generate returns a new random hex string.
func (h *Hex) Generate() string {
	b := make([]byte, h.size)
	// crypto/rand.Read never returns an error since Go 1.24.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
