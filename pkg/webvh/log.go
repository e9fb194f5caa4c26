package webvh

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Mindburn-Labs/didwebvh/pkg/diddoc"
)

// ParseLog decodes a did:webvh log file: newline-delimited JSON, one entry
// per line. Blank lines and anything that is not a JSON object are
// rejected.
func ParseLog(raw []byte) ([]diddoc.LogEntry, error) {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var entries []diddoc.LogEntry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil, fmt.Errorf("webvh: log line %d: blank lines are not permitted", lineNo)
		}
		var entry diddoc.LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("webvh: log line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("webvh: scan log: %w", err)
	}
	return entries, nil
}

// SerializeLog encodes entries as a did:webvh log file: one JSON object per
// line in encoding/json struct-field order (not JCS canonical form), each
// line newline-terminated, no trailing blank line.
func SerializeLog(entries []diddoc.LogEntry) ([]byte, error) {
	var buf bytes.Buffer
	for i, entry := range entries {
		b, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("webvh: serialize entry %d: %w", i, err)
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ParseWitnessFile decodes a did-witness.json proof file: a JSON array of
// {versionId, proof[]} entries.
func ParseWitnessFile(raw []byte) ([]diddoc.WitnessProofEntry, error) {
	var entries []diddoc.WitnessProofEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("webvh: parse witness file: %w", err)
	}
	return entries, nil
}

// ResolutionOptions parameterizes a replay: at most one target selector
// should be set; when none are, the tip is resolved.
type ResolutionOptions struct {
	VersionID          string
	VersionNumber      int
	VersionTime        *time.Time
	VerificationMethod string

	// WitnessProofs is the caller-supplied did-witness.json content. When
	// nil, ResolveDID fetches it via Fetcher.FetchWitnessProofs if the tip's
	// witness parameter declares a quorum; Replay and ResolveDIDFromLog never
	// fetch.
	WitnessProofs []diddoc.WitnessProofEntry

	// Verifier checks Data Integrity proof signatures. Required.
	Verifier interface {
		Verify(signature, message, publicKey []byte) bool
	}

	// FastResolution elides cryptographic verification for interior entries,
	// always verifying genesis and the last FastResolutionTailSize entries.
	// Off by default: eliding interior proof checks weakens the security
	// model and must be an explicit opt-in.
	FastResolution bool
}

// FastResolutionTailSize is the number of trailing entries always
// cryptographically verified under fast-resolution mode, regardless of the
// elision.
const FastResolutionTailSize = 10

// ResolvedDID is the result of a successful replay or write operation: the
// DID identifier, its document, and the resolution metadata.
type ResolvedDID struct {
	DID  string
	Doc  diddoc.Document
	Meta diddoc.Metadata
}
