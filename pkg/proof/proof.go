// Package proof implements the Data Integrity proof engine: it builds and
// verifies proofs over canonicalized log entries under the fixed
// eddsa-jcs-2022 cryptosuite. Key material handling and the raw Ed25519
// primitive live outside the core behind the Signer/Verifier interfaces —
// pkg/signing supplies a reference implementation.
package proof

import (
	"fmt"
	"time"

	"github.com/multiformats/go-multibase"

	"github.com/Mindburn-Labs/didwebvh/pkg/diddoc"
	"github.com/Mindburn-Labs/didwebvh/pkg/hashing"
)

// Cryptosuite is the only Data Integrity cryptosuite the core understands.
const Cryptosuite = "eddsa-jcs-2022"

// ProofType is the Data Integrity proof type.
const ProofType = "DataIntegrityProof"

// Signer is the external collaborator that holds private key material and
// produces raw signature bytes over a message.
type Signer interface {
	Sign(message []byte) ([]byte, error)
	VerificationMethodID() string
}

// Verifier is the external collaborator that checks a raw signature against
// a public key.
type Verifier interface {
	Verify(signature, message, publicKey []byte) bool
}

// KeyResolver recovers the raw public key bytes for a verificationMethod,
// either by decoding an inline multibase key embedded in the id or by
// dereferencing a caller-supplied key set.
type KeyResolver func(verificationMethod string) ([]byte, error)

// Build produces a Data Integrity proof over document (the entry, or
// whatever object is being sealed, with its own "proof" field already
// absent) using signer, with the given purpose and creation time.
func Build(document any, purpose string, created time.Time, signer Signer) (diddoc.Proof, error) {
	p := diddoc.Proof{
		Type:               ProofType,
		Cryptosuite:        Cryptosuite,
		Created:            created.UTC().Format(time.RFC3339),
		VerificationMethod: signer.VerificationMethodID(),
		ProofPurpose:       purpose,
	}

	input, err := signingInput(document, p)
	if err != nil {
		return diddoc.Proof{}, err
	}

	sig, err := signer.Sign(input)
	if err != nil {
		return diddoc.Proof{}, fmt.Errorf("proof: sign: %w", err)
	}

	encoded, err := multibase.Encode(multibase.Base58BTC, sig)
	if err != nil {
		return diddoc.Proof{}, fmt.Errorf("proof: encode signature: %w", err)
	}
	p.ProofValue = encoded
	return p, nil
}

// Verify checks a single proof over document using verifier, resolving the
// proof's verificationMethod through resolve.
func Verify(document any, p diddoc.Proof, resolve KeyResolver, verifier Verifier) (bool, error) {
	if p.Cryptosuite != Cryptosuite {
		return false, fmt.Errorf("proof: unsupported cryptosuite %q", p.Cryptosuite)
	}
	if p.ProofValue == "" {
		return false, fmt.Errorf("proof: missing proofValue")
	}

	withoutValue := p
	withoutValue.ProofValue = ""

	input, err := signingInput(document, withoutValue)
	if err != nil {
		return false, err
	}

	_, sig, err := multibase.Decode(p.ProofValue)
	if err != nil {
		return false, fmt.Errorf("proof: decode proofValue: %w", err)
	}

	pubKey, err := resolve(p.VerificationMethod)
	if err != nil {
		return false, fmt.Errorf("proof: resolve key for %q: %w", p.VerificationMethod, err)
	}

	return verifier.Verify(sig, input, pubKey), nil
}

// VerifyAny reports whether at least one proof in proofs verifies against
// document under one of the keys in updateKeys, where updateKeys are
// multibase-encoded public keys forming the effective authorized key set.
// It returns the verificationMethod of the first proof that verifies.
func VerifyAny(document any, proofs []diddoc.Proof, updateKeys []string, verifier Verifier) (string, bool, error) {
	keySet := make(map[string][]byte, len(updateKeys))
	for _, k := range updateKeys {
		_, raw, err := multibase.Decode(k)
		if err != nil {
			return "", false, fmt.Errorf("proof: decode updateKey %q: %w", k, err)
		}
		keySet[k] = raw
	}

	resolve := func(verificationMethod string) ([]byte, error) {
		key := InlineKey(verificationMethod)
		if raw, ok := keySet[key]; ok {
			return raw, nil
		}
		return nil, fmt.Errorf("verificationMethod %q not in effective key set", verificationMethod)
	}

	for _, p := range proofs {
		ok, err := Verify(document, p, resolve, verifier)
		if err != nil {
			continue
		}
		if ok {
			return p.VerificationMethod, true, nil
		}
	}
	return "", false, nil
}

// InlineKey extracts the trailing multibase public key from a
// verificationMethod id of the form "did:key:z.../#z..." or "...#z...",
// falling back to the id itself when there is no fragment.
func InlineKey(verificationMethod string) string {
	for i := len(verificationMethod) - 1; i >= 0; i-- {
		if verificationMethod[i] == '#' {
			return verificationMethod[i+1:]
		}
	}
	return verificationMethod
}

// signingInput implements the eddsa-jcs-2022 hash(proofOptions) ||
// hash(document) construction: canonicalize the document and the proof
// options independently, hash each with raw SHA-256, concatenate.
func signingInput(document any, options diddoc.Proof) ([]byte, error) {
	docHash, err := hashing.RawCanonicalDigest(document)
	if err != nil {
		return nil, fmt.Errorf("proof: hash document: %w", err)
	}
	optHash, err := hashing.RawCanonicalDigest(options)
	if err != nil {
		return nil, fmt.Errorf("proof: hash proof options: %w", err)
	}
	return append(append([]byte{}, optHash...), docHash...), nil
}
