// Package webvh composes the leaf packages (canonicalize, hashing, scid,
// proof, diddoc, diderr) into the did:webvh log protocol engine: the entry
// builder (C4), replay validator (C5), witness quorum check (C6), and
// resolver facade (C7).
package webvh

import (
	"fmt"
	"net/url"
	"strings"
)

// Method is the DID method name this engine implements.
const Method = "webvh"

// DID is a parsed did:webvh identifier: did:webvh:<scid>:<domain>[:<path>...]
type DID struct {
	SCID   string
	Domain string   // percent-decoded host[:port]
	Path   []string // additional path segments, in order
}

// String reassembles did back into its canonical identifier form.
func (d DID) String() string {
	segs := append([]string{"did", Method, d.SCID, percentEncodeDomain(d.Domain)}, d.Path...)
	return strings.Join(segs, ":")
}

// BaseURL derives the HTTPS origin the DID's log and witness files are
// hosted at: https://<domain>/[<path>/]did.jsonl's directory, i.e. without
// the trailing filename.
func (d DID) BaseURL() (string, error) {
	u := &url.URL{Scheme: "https", Host: d.Domain}
	if len(d.Path) > 0 {
		u.Path = "/" + strings.Join(d.Path, "/")
	}
	return u.String(), nil
}

// LogURL is the location of the did.jsonl log file for d.
func (d DID) LogURL() (string, error) {
	base, err := d.BaseURL()
	if err != nil {
		return "", err
	}
	return base + "/did.jsonl", nil
}

// WitnessURL is the location of the did-witness.json proof file for d.
func (d DID) WitnessURL() (string, error) {
	base, err := d.BaseURL()
	if err != nil {
		return "", err
	}
	return base + "/did-witness.json", nil
}

// ParseDID parses a did:webvh identifier string.
func ParseDID(id string) (DID, error) {
	parts := strings.Split(id, ":")
	if len(parts) < 4 {
		return DID{}, fmt.Errorf("webvh: malformed did %q: expected at least 4 colon-separated segments", id)
	}
	if parts[0] != "did" {
		return DID{}, fmt.Errorf("webvh: malformed did %q: missing \"did\" prefix", id)
	}
	if parts[1] != Method {
		return DID{}, fmt.Errorf("webvh: malformed did %q: method %q, want %q", id, parts[1], Method)
	}
	scid := parts[2]
	if scid == "" {
		return DID{}, fmt.Errorf("webvh: malformed did %q: empty scid", id)
	}
	domain, err := percentDecodeDomain(parts[3])
	if err != nil {
		return DID{}, fmt.Errorf("webvh: malformed did %q: %w", id, err)
	}
	if domain == "" {
		return DID{}, fmt.Errorf("webvh: malformed did %q: empty domain", id)
	}
	return DID{SCID: scid, Domain: domain, Path: append([]string{}, parts[4:]...)}, nil
}

// percentEncodeDomain escapes ":" (port separator) as the did:webvh syntax
// requires, leaving the rest of the host untouched.
func percentEncodeDomain(domain string) string {
	return strings.ReplaceAll(domain, ":", "%3A")
}

// percentDecodeDomain reverses percentEncodeDomain and rejects any other
// percent-escape, which the did:webvh domain segment does not use.
func percentDecodeDomain(encoded string) (string, error) {
	rest := strings.ReplaceAll(strings.ReplaceAll(encoded, "%3A", ""), "%3a", "")
	if strings.Contains(rest, "%") {
		return "", fmt.Errorf("invalid domain encoding: only %%3A escapes are permitted in %q", encoded)
	}
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid domain encoding: %w", err)
	}
	return decoded, nil
}
