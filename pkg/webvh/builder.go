package webvh

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/Mindburn-Labs/didwebvh/pkg/diddoc"
	"github.com/Mindburn-Labs/didwebvh/pkg/diderr"
	"github.com/Mindburn-Labs/didwebvh/pkg/hashing"
	"github.com/Mindburn-Labs/didwebvh/pkg/proof"
	"github.com/Mindburn-Labs/didwebvh/pkg/scid"
)

// Signer is the external collaborator that holds private key material and
// signs a sealed entry.
type Signer = proof.Signer

// Verifier is the external collaborator that checks proof signatures.
type Verifier = proof.Verifier

// BuildEntry assembles, seals, and self-validates the next entry to append
// to priorLog. priorLog is empty for a genesis build. doc is the
// proposed DID document for the new version; for a genesis build its Id
// should already carry diddoc.PlaceholderSCID in place of the SCID, since
// the final identifier is not known until this call derives it.
func BuildEntry(priorLog []diddoc.LogEntry, delta diddoc.Parameters, doc diddoc.Document, ts time.Time, signer Signer, verifier Verifier) (diddoc.LogEntry, error) {
	n := len(priorLog) + 1

	stripSecretKeys(&doc)

	var prevParams diddoc.Parameters
	if n > 1 {
		_, params, err := replayChain(priorLog, ResolutionOptions{Verifier: verifier}, true)
		if err != nil {
			return diddoc.LogEntry{}, diderr.ChainIntegrity("", "cannot extend an invalid log: %v", err)
		}
		prevParams = params
		if prevParams.Deactivated {
			return diddoc.LogEntry{}, diderr.PolicyViolation("", "cannot extend a deactivated did")
		}
	}

	var effParams diddoc.Parameters
	if n == 1 {
		effParams = delta
		if effParams.Method == "" {
			effParams.Method = diddoc.MethodID
		}
		if len(effParams.UpdateKeys) == 0 {
			return diddoc.LogEntry{}, diderr.InputShape("", "genesis entry requires at least one updateKey")
		}
		// scid is carried as the placeholder token through the genesis
		// pre-hash, so replay's later re-substitution of the real scid back
		// to the placeholder reproduces this entry's pre-hash exactly.
		effParams.SCID = diddoc.PlaceholderSCID
	} else {
		effParams = diddoc.Merge(&prevParams, delta)
	}

	stateBytes, err := json.Marshal(doc)
	if err != nil {
		return diddoc.LogEntry{}, diderr.InputShape("", "marshal state document: %v", err)
	}

	entry := diddoc.LogEntry{
		VersionID:   diddoc.PlaceholderSCID,
		VersionTime: ts.UTC().Format(time.RFC3339),
		Parameters:  effParams,
		State:       stateBytes,
	}

	if n == 1 {
		// The pre-hash omits the versionId key entirely, matching what replay
		// recomputes when it strips the sealed entry.
		prehash, err := hashing.StripFields(entry, "versionId", "proof")
		if err != nil {
			return diddoc.LogEntry{}, diderr.InputShape("", "strip entry for hashing: %v", err)
		}
		scidValue, err := scid.Derive(prehash)
		if err != nil {
			return diddoc.LogEntry{}, diderr.InputShape("", "derive scid: %v", err)
		}
		effParams.SCID = scidValue

		substitutedAny, err := scid.SubstituteReal(prehash, scidValue)
		if err != nil {
			return diddoc.LogEntry{}, diderr.InputShape("", "substitute scid: %v", err)
		}
		substituted, err := reencodeEntry(substitutedAny, effParams)
		if err != nil {
			return diddoc.LogEntry{}, err
		}
		entry = substituted
	}

	var digest string
	if n == 1 {
		// The genesis entryHash is, by construction, the same hash used to
		// derive the scid: re-substituting the real scid back to the
		// placeholder before hashing reproduces it exactly.
		digest = effParams.SCID
	} else {
		final, err := hashing.StripFields(entry, "versionId", "proof")
		if err != nil {
			return diddoc.LogEntry{}, diderr.InputShape("", "strip entry for hashing: %v", err)
		}
		digest, err = hashing.CanonicalDigest(final)
		if err != nil {
			return diddoc.LogEntry{}, diderr.InputShape("", "hash entry: %v", err)
		}
	}
	entry.VersionID = versionIDFor(n, digest)

	toSign := entry
	toSign.Proof = nil
	p, err := proof.Build(toSign, "authentication", ts, signer)
	if err != nil {
		return diddoc.LogEntry{}, diderr.External(entry.VersionID, err)
	}
	entry.Proof = []diddoc.Proof{p}

	sealedLog := append(append([]diddoc.LogEntry{}, priorLog...), entry)
	if _, _, err := replayChain(sealedLog, ResolutionOptions{Verifier: verifier}, true); err != nil {
		return diddoc.LogEntry{}, err
	}

	return entry, nil
}

func versionIDFor(n int, hash string) string {
	return strconv.Itoa(n) + "-" + hash
}

// reencodeEntry rebuilds a diddoc.LogEntry from the generic structural tree
// Substitute returns, re-attaching the typed Parameters (which Substitute's
// JSON round trip would otherwise decode through the legacy-aware
// UnmarshalJSON a second, redundant time).
func reencodeEntry(generic any, params diddoc.Parameters) (diddoc.LogEntry, error) {
	b, err := json.Marshal(generic)
	if err != nil {
		return diddoc.LogEntry{}, diderr.InputShape("", "reencode substituted entry: %v", err)
	}
	var entry diddoc.LogEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return diddoc.LogEntry{}, diderr.InputShape("", "reencode substituted entry: %v", err)
	}
	entry.Parameters = params
	return entry, nil
}

// stripSecretKeys removes private key material from every embedded
// verification method; the core must never emit secretKeyMultibase in
// state.
func stripSecretKeys(doc *diddoc.Document) {
	for i := range doc.VerificationMethod {
		doc.VerificationMethod[i].SecretKeyMultibase = ""
	}
}
