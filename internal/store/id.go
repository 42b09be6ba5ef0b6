package store

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random 24-char hex string. Existing records carry
// MongoDB ObjectId-shaped identifiers, so new ones keep the same shape.
func NewID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "id-unknown"
	}
	return hex.EncodeToString(b[:])
}

// ValidID reports whether id looks like a 24-char hex identifier.
func ValidID(id string) bool {
	if len(id) != 24 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
