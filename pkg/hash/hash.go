package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// LogIDLen is the length of identifiers written to logs.
const LogIDLen = 12

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Prefix returns the first prefixLen characters of SHA256(input).
func Prefix(input string, prefixLen int) string {
	full := SHA256Hex(input)
	if prefixLen <= 0 || prefixLen > len(full) {
		return full
	}
	return full[:prefixLen]
}

// LogID derives a short, salted, irreversible identifier for log correlation.
// User IDs and client IPs go through LogID before they are logged.
func LogID(value, salt string) string {
	if value == "" {
		return ""
	}
	return Prefix(salt+":"+value, LogIDLen)
}
