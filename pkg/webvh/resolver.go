package webvh

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Mindburn-Labs/didwebvh/pkg/diddoc"
	"github.com/Mindburn-Labs/didwebvh/pkg/diderr"
	"github.com/Mindburn-Labs/didwebvh/pkg/observability"
)

// Fetcher is the external collaborator that retrieves a log and its
// witness proof file over the network; the core never implements it —
// pkg/fetch supplies a reference net/http-based adapter. It is declared
// here, not in pkg/fetch, so that importing pkg/webvh never pulls in
// net/http.
type Fetcher interface {
	FetchLog(ctx context.Context, did DID) ([]diddoc.LogEntry, error)
	FetchWitnessProofs(ctx context.Context, did DID) ([]diddoc.WitnessProofEntry, error)
}

// CreateParams are the inputs to CreateDID.
type CreateParams struct {
	// Domain and Path locate the DID's web origin; the SCID segment is
	// filled in automatically once the genesis hash is known.
	Domain string
	Path   []string

	// Delta carries the genesis parameters.method/updateKeys/witness/etc.
	Delta diddoc.Parameters

	// Document is the proposed genesis DID document; its ID is overwritten
	// with the placeholder-bearing identifier before hashing.
	Document diddoc.Document

	Timestamp time.Time
	Signer    Signer
	Verifier  Verifier
}

// CreateResult is the outcome of a successful create/update/deactivate
// operation: the resolved DID plus the full log it now lives in.
type CreateResult struct {
	ResolvedDID
	Log []diddoc.LogEntry
}

// CreateDID builds a genesis entry, seals it, and resolves it back,
// returning the DID, its document, metadata, and the one-entry log. A fresh
// UUID correlation id is attached to the boundary "did created" log line
// only (not to the span) — it never enters the canonicalized entry. The witness quorum check is deferred to
// the first real resolution: a just-created tip has had no chance to
// collect witness co-signatures yet.
func CreateDID(ctx context.Context, p CreateParams) (result *CreateResult, err error) {
	correlationID := uuid.New().String()
	ctx, end := observability.StartSpan(ctx, "build_entry")
	defer func() {
		versionID := ""
		if result != nil {
			versionID = result.Meta.VersionID
		}
		end(versionID, err)
	}()

	did := DID{SCID: diddoc.PlaceholderSCID, Domain: p.Domain, Path: p.Path}
	doc := p.Document
	doc.ID = did.String()

	entry, err := BuildEntry(nil, p.Delta, doc, p.Timestamp, p.Signer, p.Verifier)
	if err != nil {
		observability.LogFailed(ctx, "create", "", err)
		return nil, err
	}

	log := []diddoc.LogEntry{entry}
	resolved, _, err := replayChain(log, ResolutionOptions{Verifier: p.Verifier}, true)
	if err != nil {
		observability.LogFailed(ctx, "create", entry.VersionID, err)
		return nil, err
	}

	observability.Logger().InfoContext(ctx, "webvh: did created", "versionId", entry.VersionID, "correlationId", correlationID)
	observability.LogAccepted(ctx, "create", entry.VersionID)
	return &CreateResult{ResolvedDID: *resolved, Log: log}, nil
}

// ResolveDIDFromLog replays log and returns the DID, document, and
// metadata as of the target opts selects, or the tip.
func ResolveDIDFromLog(ctx context.Context, log []diddoc.LogEntry, opts ResolutionOptions) (resolved *ResolvedDID, err error) {
	ctx, end := observability.StartSpan(ctx, "replay")
	defer func() {
		versionID := ""
		if resolved != nil {
			versionID = resolved.Meta.VersionID
		} else if len(log) > 0 {
			versionID = log[len(log)-1].VersionID
		}
		end(versionID, err)
	}()

	if opts.FastResolution {
		observability.LogDegraded(ctx, "resolve", "fast-resolution mode elided interior proof verification")
	}

	resolved, err = Replay(log, opts)
	if err != nil {
		versionID := ""
		if len(log) > 0 {
			versionID = log[len(log)-1].VersionID
		}
		observability.LogFailed(ctx, "resolve", versionID, err)
		return nil, err
	}
	observability.LogAccepted(ctx, "resolve", resolved.Meta.VersionID)
	return resolved, nil
}

// ResolveDID fetches the did.jsonl log for didStr through fetcher and
// resolves it. Witness proofs are fetched only when opts does not already
// carry them and the chain declares a quorum; a caller that supplies proofs
// up front pre-empts that network round trip.
func ResolveDID(ctx context.Context, didStr string, fetcher Fetcher, opts ResolutionOptions) (*ResolvedDID, error) {
	did, err := ParseDID(didStr)
	if err != nil {
		return nil, diderr.InputShape("", "resolve: %v", err)
	}

	log, err := fetcher.FetchLog(ctx, did)
	if err != nil {
		observability.LogFailed(ctx, "resolve", "", err)
		return nil, diderr.External("", err)
	}

	if opts.WitnessProofs == nil && logDeclaresWitness(log) {
		proofs, err := fetcher.FetchWitnessProofs(ctx, did)
		if err != nil {
			observability.LogFailed(ctx, "resolve", "", err)
			return nil, diderr.External("", err)
		}
		opts.WitnessProofs = proofs
	}

	return ResolveDIDFromLog(ctx, log, opts)
}

// logDeclaresWitness reports whether the witness parameter in force at the
// tip (sticky across entries) declares a non-trivial quorum.
func logDeclaresWitness(log []diddoc.LogEntry) bool {
	declared := false
	for _, entry := range log {
		if w := entry.Parameters.Witness; w != nil {
			declared = w.Threshold > 0 && len(w.Witnesses) > 0
		}
	}
	return declared
}

// UpdateParams are the inputs to UpdateDID.
type UpdateParams struct {
	Log       []diddoc.LogEntry
	Delta     diddoc.Parameters
	Document  diddoc.Document
	Timestamp time.Time
	Signer    Signer
	Verifier  Verifier
}

// UpdateDID replays the existing log to refuse extending a deactivated or
// invalid chain, then appends one new entry built via BuildEntry. The
// witness check at the old tip is skipped (quorum is evaluated fresh
// against the new tip on the next resolve), but chain integrity and
// authorization are fully re-verified.
func UpdateDID(ctx context.Context, p UpdateParams) (result *CreateResult, err error) {
	ctx, end := observability.StartSpan(ctx, "build_entry")
	defer func() {
		versionID := ""
		if result != nil {
			versionID = result.Meta.VersionID
		}
		end(versionID, err)
	}()

	prior, prevParams, err := replayChain(p.Log, ResolutionOptions{Verifier: p.Verifier}, true)
	if err != nil {
		observability.LogFailed(ctx, "update", "", err)
		return nil, err
	}
	if prevParams.Deactivated {
		err := diderr.PolicyViolation(prior.Meta.VersionID, "cannot update a deactivated did")
		observability.LogFailed(ctx, "update", prior.Meta.VersionID, err)
		return nil, err
	}

	entry, err := BuildEntry(p.Log, p.Delta, p.Document, p.Timestamp, p.Signer, p.Verifier)
	if err != nil {
		observability.LogFailed(ctx, "update", "", err)
		return nil, err
	}

	log := append(append([]diddoc.LogEntry{}, p.Log...), entry)
	resolved, _, err := replayChain(log, ResolutionOptions{Verifier: p.Verifier}, true)
	if err != nil {
		observability.LogFailed(ctx, "update", entry.VersionID, err)
		return nil, err
	}

	observability.LogAccepted(ctx, "update", entry.VersionID)
	return &CreateResult{ResolvedDID: *resolved, Log: log}, nil
}

// DeactivateParams are the inputs to DeactivateDID.
type DeactivateParams struct {
	Log       []diddoc.LogEntry
	Timestamp time.Time
	Signer    Signer
	Verifier  Verifier
}

// DeactivateDID appends a final entry with parameters.deactivated=true over
// the tip's current document, after which no further entries are
// admissible.
func DeactivateDID(ctx context.Context, p DeactivateParams) (*CreateResult, error) {
	if _, _, err := replayChain(p.Log, ResolutionOptions{Verifier: p.Verifier}, true); err != nil {
		observability.LogFailed(ctx, "deactivate", "", err)
		return nil, err
	}

	// Carry forward the tip's document exactly as it is hashed on the wire,
	// not the replay snapshot: the snapshot's #files/#whois services are
	// injected non-persistently and must never be written back into state.
	var doc diddoc.Document
	tipEntry := p.Log[len(p.Log)-1]
	if len(tipEntry.State) > 0 {
		if err := json.Unmarshal(tipEntry.State, &doc); err != nil {
			err = diderr.InputShape(tipEntry.VersionID, "deactivate: invalid tip state document: %v", err)
			observability.LogFailed(ctx, "deactivate", tipEntry.VersionID, err)
			return nil, err
		}
	}

	return UpdateDID(ctx, UpdateParams{
		Log:       p.Log,
		Delta:     diddoc.Parameters{Deactivated: true},
		Document:  doc,
		Timestamp: p.Timestamp,
		Signer:    p.Signer,
		Verifier:  p.Verifier,
	})
}
