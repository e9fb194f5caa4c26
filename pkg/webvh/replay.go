package webvh

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Mindburn-Labs/didwebvh/pkg/diddoc"
	"github.com/Mindburn-Labs/didwebvh/pkg/diderr"
	"github.com/Mindburn-Labs/didwebvh/pkg/hashing"
	"github.com/Mindburn-Labs/didwebvh/pkg/proof"
	"github.com/Mindburn-Labs/didwebvh/pkg/scid"
)

// Replay walks log end to end enforcing every chain invariant and returns
// the DID document and metadata as of the target selected by opts, or the
// tip when opts names no target. If a requested target was already captured
// before a later entry failed validation, the captured snapshot is returned
// and the failure swallowed — best-effort resolution to a prior version even
// when the current tip is broken.
func Replay(log []diddoc.LogEntry, opts ResolutionOptions) (*ResolvedDID, error) {
	result, _, err := replayChain(log, opts, false)
	if err != nil && result != nil {
		result.Doc = injectDefaultServices(result.Doc)
		return result, nil
	}
	return result, err
}

// hasTarget reports whether opts names an explicit resolution target rather
// than asking for the tip.
func hasTarget(opts ResolutionOptions) bool {
	return opts.VersionID != "" || opts.VersionNumber != 0 || opts.VersionTime != nil || opts.VerificationMethod != ""
}

// replayChain is the walk shared by Replay and the write paths (entry
// builder self-validation, create/update post-validation), which pass
// skipWitness=true: quorum is a tip-only global property, and witness
// proofs over a freshly built tip cannot exist until the entry has been
// published for witnesses to co-sign. It also returns the final accumulated
// Parameters so the builder can merge the next entry's delta on top. When a
// mid-chain failure occurs after an explicit target snapshot was captured,
// the snapshot is returned alongside the error; Replay decides whether to
// swallow.
func replayChain(log []diddoc.LogEntry, opts ResolutionOptions, skipWitness bool) (*ResolvedDID, diddoc.Parameters, error) {
	if len(log) == 0 {
		return nil, diddoc.Parameters{}, diderr.InputShape("", "log is empty")
	}

	var (
		params      diddoc.Parameters
		havePrev    bool
		genesisID   string
		snapshot    *ResolvedDID
		targetFound bool
		deactivated bool
	)
	target := hasTarget(opts)

	for i, entry := range log {
		n := i + 1
		versionID := entry.VersionID

		num, hashSuffix, err := splitVersionID(versionID)
		if err != nil {
			return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "malformed versionId: %v", err)
		}
		if num != n {
			return recoverOr(snapshot, target, targetFound), params, diderr.ChainIntegrity(versionID, "versionId number %d does not match entry index %d", num, n)
		}

		if deactivated {
			return recoverOr(snapshot, target, targetFound), params, diderr.PolicyViolation(versionID, "entry follows a deactivated DID")
		}

		thisTime, err := time.Parse(time.RFC3339, entry.VersionTime)
		if err != nil {
			return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "invalid versionTime %q: %v", entry.VersionTime, err)
		}
		if i > 0 {
			prevTime, _ := time.Parse(time.RFC3339, log[i-1].VersionTime)
			if thisTime.Before(prevTime) {
				return recoverOr(snapshot, target, targetFound), params, diderr.ChainIntegrity(versionID, "versionTime precedes the previous entry's")
			}
		}

		var prevParams *diddoc.Parameters
		if havePrev {
			prevParams = &params
		}
		effParams := diddoc.Merge(prevParams, entry.Parameters)

		if n == 1 {
			if effParams.Method == "" {
				return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "genesis entry missing required parameters.method")
			}
			if len(effParams.UpdateKeys) == 0 {
				return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "genesis entry missing required parameters.updateKeys")
			}
		}
		if err := effParams.ValidateShape(); err != nil {
			return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "parameters failed shape validation: %v", err)
		}
		if err := validateWitnessShape(effParams.Witness); err != nil {
			return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "invalid witness parameters: %v", err)
		}

		var doc diddoc.Document
		if len(entry.State) > 0 {
			if err := json.Unmarshal(entry.State, &doc); err != nil {
				return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "invalid state document: %v", err)
			}
		}

		// entryHash self-consistency, computed with the versionId and proof
		// keys deleted outright — an empty-valued key would still be
		// canonicalized and break byte-exact agreement with other
		// implementations. Genesis additionally re-substitutes the real scid
		// back to the placeholder before hashing, which by construction makes
		// the declared entryHash equal the scid itself.
		stripped, err := hashing.StripFields(entry, "versionId", "proof")
		if err != nil {
			return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "strip entry for hashing: %v", err)
		}
		if n == 1 {
			substituted, err := scid.SubstitutePlaceholder(stripped, effParams.SCID)
			if err != nil {
				return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "scid substitution: %v", err)
			}
			derived, err := hashing.CanonicalDigest(substituted)
			if err != nil {
				return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "hash genesis entry: %v", err)
			}
			if !hashing.Equal(derived, effParams.SCID) {
				return recoverOr(snapshot, target, targetFound), params, diderr.ChainIntegrity(versionID, "declared scid does not match the hash derived from the genesis entry")
			}
			if !hashing.Equal(derived, hashSuffix) {
				return recoverOr(snapshot, target, targetFound), params, diderr.ChainIntegrity(versionID, "entryHash does not match the recomputed genesis hash")
			}
			genesisID = doc.ID
		} else {
			recomputed, err := hashing.CanonicalDigest(stripped)
			if err != nil {
				return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "hash entry: %v", err)
			}
			if !hashing.Equal(recomputed, hashSuffix) {
				return recoverOr(snapshot, target, targetFound), params, diderr.ChainIntegrity(versionID, "entryHash does not match the recomputed hash")
			}
		}

		// Non-portable hosts may not change across versions.
		if n > 1 && !effParams.IsPortable() {
			if lastColonSegment(doc.ID) != lastColonSegment(genesisID) {
				return recoverOr(snapshot, target, targetFound), params, diderr.PolicyViolation(versionID, "non-portable did changed host segment")
			}
		}

		// At least one proof must verify under the effective key set.
		// Fast-resolution mode (off by default) elides this check for
		// interior entries, always verifying genesis and the last K entries.
		if opts.Verifier == nil {
			return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "resolution options missing a verifier")
		}
		isTail := n > len(log)-FastResolutionTailSize
		if !opts.FastResolution || n == 1 || isTail {
			effectiveKeys := effParams.UpdateKeys
			if n > 1 {
				effectiveKeys = params.UpdateKeys
			}
			document := entry
			document.Proof = nil
			if _, ok, err := proof.VerifyAny(document, entry.Proof, effectiveKeys, opts.Verifier); err != nil || !ok {
				if err != nil {
					return recoverOr(snapshot, target, targetFound), params, diderr.Authorization(versionID, "no proof verified under the effective key set: %v", err)
				}
				return recoverOr(snapshot, target, targetFound), params, diderr.Authorization(versionID, "no proof verified under the effective key set")
			}
		}

		// Pre-rotation commitment: rotated-in keys must hash into the set the
		// previous entry committed to.
		if n > 1 && len(params.NextKeyHashes) > 0 && !sameStringSet(effParams.UpdateKeys, params.UpdateKeys) {
			for _, key := range effParams.UpdateKeys {
				digest, err := hashing.Digest([]byte(key))
				if err != nil {
					return recoverOr(snapshot, target, targetFound), params, diderr.InputShape(versionID, "hash update key: %v", err)
				}
				if !containsHash(params.NextKeyHashes, digest) {
					return recoverOr(snapshot, target, targetFound), params, diderr.Authorization(versionID, "update key does not match the committed pre-rotation hash set")
				}
			}
		}

		if effParams.Deactivated {
			deactivated = true
		}

		meta := buildMetadata(entry, effParams)
		if havePrev {
			meta.Created = snapshotMetaCreated(snapshot, log[0].VersionTime)
		} else {
			meta.Created = entry.VersionTime
		}
		meta.Updated = entry.VersionTime

		var nextTimePtr *time.Time
		if i+1 < len(log) {
			if nt, err := time.Parse(time.RFC3339, log[i+1].VersionTime); err == nil {
				nextTimePtr = &nt
			}
		}

		// Without a target, the snapshot tracks the tip. With one, only the
		// first matching version is captured — verificationMethod targets
		// resolve to the version the method first appears in.
		if !target {
			snapshot = &ResolvedDID{DID: doc.ID, Doc: doc, Meta: meta}
		} else if !targetFound && matchesTarget(opts, entry, n, doc, thisTime, nextTimePtr) {
			snapshot = &ResolvedDID{DID: doc.ID, Doc: doc, Meta: meta}
			targetFound = true
		}

		params = effParams
		havePrev = true
	}

	if target && !targetFound {
		return nil, params, diderr.InputShape("", "no entry satisfies the requested resolution target")
	}
	if snapshot == nil {
		return nil, params, diderr.InputShape("", "replay produced no resolvable snapshot")
	}

	// Quorum is a property of the chain tip, not of whichever prior version
	// the caller targeted: the witness parameters in force at the tip decide,
	// and proofs are matched against the tip's versionId.
	if !skipWitness {
		if err := checkWitnessQuorum(log[len(log)-1], params.Witness, opts.WitnessProofs, opts.Verifier); err != nil {
			return nil, params, err
		}
	}

	withServices := injectDefaultServices(snapshot.Doc)
	snapshot.Doc = withServices
	return snapshot, params, nil
}

func recoverOr(snapshot *ResolvedDID, target, targetFound bool) *ResolvedDID {
	if target && targetFound {
		return snapshot
	}
	return nil
}

func splitVersionID(versionID string) (int, string, error) {
	idx := strings.IndexByte(versionID, '-')
	if idx <= 0 {
		return 0, "", fmt.Errorf("expected \"<n>-<hash>\", got %q", versionID)
	}
	n, err := strconv.Atoi(versionID[:idx])
	if err != nil {
		return 0, "", fmt.Errorf("non-numeric version prefix in %q", versionID)
	}
	return n, versionID[idx+1:], nil
}

func lastColonSegment(id string) string {
	parts := strings.Split(id, ":")
	return parts[len(parts)-1]
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, v := range a {
		set[v]++
	}
	for _, v := range b {
		set[v]--
	}
	for _, c := range set {
		if c != 0 {
			return false
		}
	}
	return true
}

func containsHash(hashes []string, h string) bool {
	for _, candidate := range hashes {
		if hashing.Equal(candidate, h) {
			return true
		}
	}
	return false
}

func buildMetadata(entry diddoc.LogEntry, p diddoc.Parameters) diddoc.Metadata {
	var witness diddoc.WitnessParams
	if p.Witness != nil {
		witness = *p.Witness
	}
	return diddoc.Metadata{
		VersionID:     entry.VersionID,
		SCID:          p.SCID,
		UpdateKeys:    append([]string{}, p.UpdateKeys...),
		NextKeyHashes: append([]string{}, p.NextKeyHashes...),
		Prerotation:   len(p.NextKeyHashes) > 0,
		Portable:      p.IsPortable(),
		Deactivated:   p.Deactivated,
		Witness:       witness,
		Watchers:      append([]string{}, p.Watchers...),
	}
}

func snapshotMetaCreated(prev *ResolvedDID, fallback string) string {
	if prev != nil && prev.Meta.Created != "" {
		return prev.Meta.Created
	}
	return fallback
}

func matchesTarget(opts ResolutionOptions, entry diddoc.LogEntry, n int, doc diddoc.Document, thisTime time.Time, nextTime *time.Time) bool {
	switch {
	case opts.VersionID != "":
		return entry.VersionID == opts.VersionID
	case opts.VersionNumber != 0:
		return n == opts.VersionNumber
	case opts.VersionTime != nil:
		if thisTime.After(*opts.VersionTime) {
			return false
		}
		if nextTime != nil && !nextTime.After(*opts.VersionTime) {
			return false
		}
		return true
	case opts.VerificationMethod != "":
		for _, vm := range doc.VerificationMethod {
			if vm.ID == opts.VerificationMethod {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// injectDefaultServices adds the #files and #whois services when absent, a
// non-persistent resolver-side convenience. It runs only on the returned
// snapshot, after all hashing, so state hashes match an independent
// implementation that does not inject.
func injectDefaultServices(doc diddoc.Document) diddoc.Document {
	did, err := ParseDID(doc.ID)
	if err != nil {
		return doc
	}
	base, err := did.BaseURL()
	if err != nil {
		return doc
	}

	hasFiles, hasWhois := false, false
	for _, svc := range doc.Service {
		switch svc.ID {
		case "#files":
			hasFiles = true
		case "#whois":
			hasWhois = true
		}
	}
	out := doc
	out.Service = append([]diddoc.Service{}, doc.Service...)
	if !hasFiles {
		out.Service = append(out.Service, diddoc.Service{ID: "#files", Type: "relativeRef", ServiceEndpoint: base})
	}
	if !hasWhois {
		out.Service = append(out.Service, diddoc.Service{ID: "#whois", Type: "LinkedVerifiablePresentation", ServiceEndpoint: base + "/whois.vp"})
	}
	return out
}
