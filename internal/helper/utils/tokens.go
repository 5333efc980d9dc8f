package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex digests a plaintext token for at-rest storage; only the hash
// ever touches the database.
func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
