// Package hashing implements the multihash/multibase half of the
// canonicalizer-and-hasher pipeline: SHA-256 over canonical JSON, framed as
// a multihash and wrapped in a multibase base58-btc string for use as
// entryHash, the SCID, and nextKeyHashes commitments.
package hashing

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"

	"github.com/Mindburn-Labs/didwebvh/pkg/canonicalize"
)

// Digest computes the SHA-256 multihash of data, multibase-encoded as
// base58-btc (the "z..." form used throughout did:webvh).
func Digest(data []byte) (string, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("hashing: multihash sum: %w", err)
	}
	encoded, err := multibase.Encode(multibase.Base58BTC, mh)
	if err != nil {
		return "", fmt.Errorf("hashing: multibase encode: %w", err)
	}
	return encoded, nil
}

// CanonicalDigest canonicalizes v via JCS then computes its multihash/
// multibase digest. SCID derivation and entry hashing both build on it.
func CanonicalDigest(v any) (string, error) {
	b, err := canonicalize.JCS(v)
	if err != nil {
		return "", fmt.Errorf("hashing: canonicalize: %w", err)
	}
	return Digest(b)
}

// Decode reverses a multibase-encoded multihash back into its raw digest
// bytes (stripping the multihash code/length prefix).
func Decode(encoded string) ([]byte, error) {
	_, data, err := multibase.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("hashing: multibase decode: %w", err)
	}
	decoded, err := multihash.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("hashing: multihash decode: %w", err)
	}
	return decoded.Digest, nil
}

// Equal constant-time compares two multibase-encoded digests.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RawDigest returns the bare SHA-256 digest of data, with no multihash or
// multibase framing. The proof engine needs this form to concatenate
// hash(proofOptions) || hash(document) ahead of signing.
func RawDigest(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// RawCanonicalDigest canonicalizes v via JCS and returns its bare SHA-256
// digest bytes.
func RawCanonicalDigest(v any) ([]byte, error) {
	b, err := canonicalize.JCS(v)
	if err != nil {
		return nil, fmt.Errorf("hashing: canonicalize: %w", err)
	}
	return RawDigest(b), nil
}

// StripFields returns a shallow copy of a JSON object (as map[string]any)
// with the named top-level fields removed. Used to compute entryHash over
// an entry with versionId/proof omitted.
func StripFields(v any, fields ...string) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("hashing: marshal for strip: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("hashing: unmarshal for strip: %w", err)
	}
	for _, f := range fields {
		delete(m, f)
	}
	return m, nil
}
