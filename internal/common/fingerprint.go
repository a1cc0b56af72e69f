package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint computes a stable content fingerprint: SHA-256 over the text
// with surrounding whitespace trimmed and runs of whitespace collapsed, so
// formatting-only churn does not register as a content change.
func Fingerprint(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
