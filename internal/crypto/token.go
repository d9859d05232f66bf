package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

const tokenBytes = 32

// NewToken returns 32 random bytes hex encoded. Used for session and
// email verification tokens.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
