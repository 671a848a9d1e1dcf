package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTree      = "sieve/tree/v1"
	DomainPredicate = "sieve/predicate/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentID computes the content-addressed ID of v within the given domain.
// Two values with equal canonical JSON have equal IDs.
func ContentID(domain string, v IRValue) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ContentID(%s): failed to marshal: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// TreeID computes the identity of a canonical condition tree.
// Predicate caches key on it, so identical query strings share compiled output.
func TreeID(tree IRObject) (string, error) {
	return ContentID(DomainTree, tree)
}

// MustTreeID is like TreeID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTreeID(tree IRObject) string {
	id, err := TreeID(tree)
	if err != nil {
		panic(err)
	}
	return id
}
