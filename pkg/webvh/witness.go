package webvh

import (
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"

	"github.com/Mindburn-Labs/didwebvh/pkg/diddoc"
	"github.com/Mindburn-Labs/didwebvh/pkg/diderr"
	"github.com/Mindburn-Labs/didwebvh/pkg/proof"
)

// validateWitnessShape enforces the structural rules on a witness
// parameter: a nil witness is valid (no quorum declared); otherwise the
// threshold must be a non-negative integer no greater than the sum of
// witness weights, and witness ids must be well-formed, non-duplicated DIDs.
func validateWitnessShape(w *diddoc.WitnessParams) error {
	if w == nil {
		return nil
	}
	if w.Threshold < 0 {
		return fmt.Errorf("negative threshold")
	}
	seen := make(map[string]bool, len(w.Witnesses))
	sum := 0
	for _, witness := range w.Witnesses {
		if !strings.HasPrefix(witness.ID, "did:") {
			return fmt.Errorf("witness id %q is not a well-formed did", witness.ID)
		}
		if seen[witness.ID] {
			return fmt.Errorf("duplicate witness id %q", witness.ID)
		}
		seen[witness.ID] = true
		sum += witness.EffectiveWeight()
	}
	if w.Threshold > sum {
		return fmt.Errorf("threshold %d exceeds the sum of witness weights %d", w.Threshold, sum)
	}
	return nil
}

// checkWitnessQuorum verifies that, at the chain tip, the sum of weights of
// distinct witnesses whose proofs verify over the tip entry meets or
// exceeds the declared threshold. A no-op when the threshold is zero or no
// witnesses are declared.
func checkWitnessQuorum(tip diddoc.LogEntry, w *diddoc.WitnessParams, proofs []diddoc.WitnessProofEntry, verifier proof.Verifier) error {
	if w == nil || w.Threshold <= 0 || len(w.Witnesses) == 0 {
		return nil
	}

	byID := make(map[string]diddoc.Witness, len(w.Witnesses))
	for _, witness := range w.Witnesses {
		byID[witness.ID] = witness
	}

	document := tip
	document.Proof = nil

	verified := make(map[string]bool)
	for _, entry := range proofs {
		if entry.VersionID != tip.VersionID {
			continue
		}
		for _, p := range entry.Proof {
			witness, ok := matchWitness(p, byID)
			if !ok {
				continue
			}
			ok, err := proof.Verify(document, p, witnessKeyResolver(witness), verifier)
			if err == nil && ok {
				verified[witness.ID] = true
			}
		}
	}

	sum := 0
	for id := range verified {
		sum += byID[id].EffectiveWeight()
	}
	if sum < w.Threshold {
		return diderr.WitnessQuorum(tip.VersionID, "witness quorum not met: %d of required %d", sum, w.Threshold)
	}
	return nil
}

// matchWitness resolves the witness a proof claims to be from by stripping
// the verificationMethod's fragment and looking up the remaining DID.
func matchWitness(p diddoc.Proof, byID map[string]diddoc.Witness) (diddoc.Witness, bool) {
	did := p.VerificationMethod
	if i := strings.IndexByte(did, '#'); i >= 0 {
		did = did[:i]
	}
	w, ok := byID[did]
	return w, ok
}

// witnessKeyResolver recovers a witness's public key from the inline
// multibase key carried in its proof's verificationMethod fragment.
func witnessKeyResolver(w diddoc.Witness) proof.KeyResolver {
	return func(verificationMethod string) ([]byte, error) {
		key := proof.InlineKey(verificationMethod)
		_, raw, err := multibase.Decode(key)
		if err != nil {
			return nil, fmt.Errorf("decode key for witness %q: %w", w.ID, err)
		}
		return raw, nil
	}
}
