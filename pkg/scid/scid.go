// Package scid derives and verifies a did:webvh Self-Certifying IDentifier:
// a multihash digest of the genesis log entry, computed with every
// occurrence of the SCID itself replaced by a fixed placeholder token, so
// the identifier binds to its own origin history.
package scid

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Mindburn-Labs/didwebvh/pkg/diddoc"
	"github.com/Mindburn-Labs/didwebvh/pkg/hashing"
)

// Derive computes the SCID of a genesis entry. genesisEntry must already
// have every occurrence of the final SCID replaced by
// diddoc.PlaceholderSCID — see Substitute.
func Derive(genesisEntry any) (string, error) {
	digest, err := hashing.CanonicalDigest(genesisEntry)
	if err != nil {
		return "", fmt.Errorf("scid: derive: %w", err)
	}
	return digest, nil
}

// VerifyMembership recomputes the SCID of genesisEntry (which must already
// carry the placeholder in place of scid) and constant-time compares it
// against want.
func VerifyMembership(want string, genesisEntry any) (bool, error) {
	got, err := Derive(genesisEntry)
	if err != nil {
		return false, err
	}
	return hashing.Equal(want, got), nil
}

// Substitute returns a deep copy of v with every occurrence of from inside
// a string value replaced by to. Occurrences embedded in longer strings are
// replaced too — the genesis document id carries the token inside a full
// did:webvh identifier. Substitution operates on the structural
// (already-decoded) JSON object, not on serialized text, so it is immune to
// canonicalization-order accidents and never touches object keys.
func Substitute(v any, from, to string) (any, error) {
	if from == "" {
		return nil, fmt.Errorf("scid: substitute: empty search token")
	}
	// Round-trip through JSON to obtain a generic structural tree regardless
	// of v's concrete Go type (struct, map, etc).
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("scid: substitute: marshal: %w", err)
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, fmt.Errorf("scid: substitute: unmarshal: %w", err)
	}
	return substituteValue(generic, from, to), nil
}

func substituteValue(v any, from, to string) any {
	switch t := v.(type) {
	case string:
		if strings.Contains(t, from) {
			return strings.ReplaceAll(t, from, to)
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = substituteValue(elem, from, to)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = substituteValue(val, from, to)
		}
		return out
	default:
		return t
	}
}

// SubstitutePlaceholder replaces every occurrence of the real SCID in entry
// with the placeholder token, used when recomputing the genesis pre-hash
// during replay validation.
func SubstitutePlaceholder(entry any, realSCID string) (any, error) {
	return Substitute(entry, realSCID, diddoc.PlaceholderSCID)
}

// SubstituteReal replaces every occurrence of the placeholder token with the
// derived SCID, used by the entry builder once the SCID has been computed.
func SubstituteReal(entry any, realSCID string) (any, error) {
	return Substitute(entry, diddoc.PlaceholderSCID, realSCID)
}
