package security

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a short, stable BLAKE2b-256 digest of token for logs and telemetry.
// Raw tokens must never be logged; the fingerprint lets two log lines be correlated instead.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
