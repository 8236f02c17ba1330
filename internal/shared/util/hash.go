package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex SHA-256 of s, truncated to n characters when
// 0 < n < 64. Used to log user ids and prompts without their content.
func Fingerprint(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	out := hex.EncodeToString(sum[:])
	if n > 0 && n < len(out) {
		return out[:n]
	}
	return out
}
