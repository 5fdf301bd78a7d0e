package types

import (
	"crypto/subtle"

	"golang.org/x/crypto/sha3"
)

// HashSize is the length of a Keccak-256 digest.
const HashSize = 32

// Keccak256 returns the legacy Keccak-256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// RevealKeyFor returns the reveal key that binds to commitment.
func RevealKeyFor(commitment []byte) []byte {
	return Keccak256(commitment)
}

// VerifyRevealKey reports whether key is the hash of commitment.
func VerifyRevealKey(commitment, key []byte) bool {
	if len(commitment) == 0 || len(key) != HashSize {
		return false
	}
	return subtle.ConstantTimeCompare(RevealKeyFor(commitment), key) == 1
}
