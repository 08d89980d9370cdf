// Package canonical turns display names into the identity key used for
// cross-source deduplication.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// FingerprintLen is the number of hex characters kept from the SHA-256 digest (64 bits).
const FingerprintLen = 16

// Normalize lowercases s and drops every rune that is not a letter, digit or underscore.
// Hangul syllables are letters, so Korean titles survive intact.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Fingerprint hashes an already-normalized key into a fixed-width hex string.
// It has no seed, so the value is stable across processes.
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:FingerprintLen]
}

// Key is Fingerprint(Normalize(name)).
//
// An empty or punctuation-only name maps to EmptyKey, so unnamed records
// from any source collapse into one entity.
func Key(name string) string {
	return Fingerprint(Normalize(name))
}

// EmptyKey is the fingerprint every unnamed record shares.
var EmptyKey = Fingerprint("")
