package finetune

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// pairSeparator joins a language pair. Appends reject names containing it.
const pairSeparator = "\x1f"

// TokenKey hashes a bearer token so raw tokens are never written to storage
func TokenKey(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func pairID(from, to string) string {
	return from + pairSeparator + to
}

func splitPairID(id string) (from, to string, ok bool) {
	return strings.Cut(id, pairSeparator)
}

// pairKey is a fixed-length, storage-safe form of a language pair
func pairKey(from, to string) string {
	hash := sha256.Sum256([]byte(pairID(from, to)))
	return hex.EncodeToString(hash[:8])
}
