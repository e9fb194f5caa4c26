// Package canonicalize provides RFC 8785 (JSON Canonicalization Scheme)
// compliant serialization, the determinism primitive every hash and
// signature in the did:webvh log protocol builds on: two entries that
// differ only in key order or insignificant whitespace must hash identically.
package canonicalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gowebpki/jcs"
)

// Engine canonicalizes an arbitrary JSON-representable value into its RFC
// 8785 canonical byte form.
type Engine interface {
	Canonicalize(v any) ([]byte, error)
}

// Recursive is a hand-rolled Engine: it marshals v with the standard
// library to respect struct tags, decodes into a generic tree with
// json.Number preserved, then re-serializes with keys sorted
// lexicographically by UTF-8 byte and HTML escaping disabled. It exists as
// an independent cross-check of GoWebPKI (see jcs_test.go and the fuzz
// tests) — JCS output is required to be byte-identical regardless of
// implementation, so any divergence between the two engines is a bug.
type Recursive struct{}

// GoWebPKI is the default Engine: it canonicalizes by round-tripping
// through github.com/gowebpki/jcs, the reference RFC 8785 implementation.
type GoWebPKI struct{}

// JCS returns the RFC 8785 canonical JSON representation of v using the
// default GoWebPKI engine. Every hash, SCID, and proof in the system goes
// through here.
func JCS(v any) ([]byte, error) {
	return GoWebPKI{}.Canonicalize(v)
}

// JCSString returns the JCS canonical form as a string.
func JCSString(v any) (string, error) {
	b, err := JCS(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (Recursive) Canonicalize(v any) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: pre-marshal: %w", err)
	}

	var generic any
	decoder := json.NewDecoder(bytes.NewReader(intermediate))
	decoder.UseNumber()
	if err := decoder.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonicalize: intermediate decode: %w", err)
	}

	return marshalRecursive(generic)
}

func (GoWebPKI) Canonicalize(v any) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: pre-marshal: %w", err)
	}
	out, err := jcs.Transform(intermediate)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: gowebpki transform: %w", err)
	}
	return out, nil
}

func marshalRecursive(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return []byte("null"), nil
	case bool:
		if t {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case json.Number:
		return []byte(t.String()), nil
	case string:
		return marshalString(t)
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalRecursive(elem)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		var buf bytes.Buffer
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalString(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')

			vb, err := marshalRecursive(t[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
	}
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
