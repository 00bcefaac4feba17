package hash

import (
	"fmt"
	"strings"
)

// Hash is a one-way hash with a matching verifier.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// Algorithm names accepted by NewPassword.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// NewPassword returns the password hasher selected by algorithm.
// An empty algorithm selects bcrypt.
func NewPassword(algorithm string, cost int, pepper string) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmBcrypt:
		return NewBcrypt(cost, pepper), nil
	case AlgorithmArgon2id:
		return NewArgon2id(pepper), nil
	default:
		return nil, fmt.Errorf("hash: unsupported password algorithm %q", algorithm)
	}
}
