package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// FingerprintSize is the length of a Fingerprint in characters.
const FingerprintSize = 12

// maskVisible is how many leading characters Mask keeps.
const maskVisible = 8

// Equal compares two secrets in constant time with respect to their contents.
// Strings of different length are unequal.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Fingerprint returns a short deterministic SHA-256 fingerprint of a secret,
// suitable for correlating log lines without revealing the value.
//
// The fingerprint is the first FingerprintSize characters of the base64url
// encoded digest. The empty string fingerprints to "".
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:FingerprintSize]
}

// Mask returns the first 8 characters of a credential followed by "...".
// Credentials of 8 characters or fewer are fully masked.
func Mask(secret string) string {
	if len(secret) <= maskVisible {
		return "..."
	}
	return secret[:maskVisible] + "..."
}
