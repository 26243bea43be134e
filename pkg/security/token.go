package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	// TokenBytes is the entropy of a referee verification token.
	TokenBytes = 32
	// MinTokenLength rejects obviously truncated tokens before any lookup.
	MinTokenLength = 16
)

// GenerateToken returns a hex-encoded random token and its storage hash.
func GenerateToken() (raw string, hash string, err error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, HashToken(raw), nil
}

// HashToken is the deterministic lookup hash stored in place of the raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
