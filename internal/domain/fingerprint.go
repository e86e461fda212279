package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const fingerprintSeparator = "|"

// Fingerprint digests the application id and normalized signals into the
// partition key candidates are bucketed under. Callers pass signals through
// NormalizeSignals first; the digest itself does no normalization.
func Fingerprint(applicationID string, s Signals) string {
	raw := strings.Join([]string{applicationID, s.IP, s.OS, s.OSVersion}, fingerprintSeparator)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
