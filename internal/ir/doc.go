// Package ir provides the canonical value representation shared by sieve's
// condition trees, predicate expressions and SQL parameters.
//
// This package contains value types and their encodings only. Other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - IRValue is sealed; only the types in this package implement it
//   - Canonical JSON follows RFC 8785 key ordering with NFC-normalized strings
//   - Content IDs are domain-separated SHA-256 hashes of canonical JSON
package ir
