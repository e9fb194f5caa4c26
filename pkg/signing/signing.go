// Package signing provides a reference implementation of the proof
// engine's external Signer/Verifier collaborators. Production callers may
// supply their own — the core only depends on the proof.Signer/
// proof.Verifier interfaces.
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/multiformats/go-multibase"
)

// Ed25519Signer signs with an in-memory Ed25519 private key and reports a
// fixed verificationMethod id.
type Ed25519Signer struct {
	priv                 ed25519.PrivateKey
	pub                  ed25519.PublicKey
	verificationMethodID string
}

// NewEd25519Signer generates a fresh Ed25519 key pair bound to
// verificationMethodID.
func NewEd25519Signer(verificationMethodID string) (*Ed25519Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("signing: generate key: %w", err)
	}
	return &Ed25519Signer{priv: priv, pub: pub, verificationMethodID: verificationMethodID}, nil
}

// NewEd25519SignerFromKey wraps an existing private key.
func NewEd25519SignerFromKey(priv ed25519.PrivateKey, verificationMethodID string) *Ed25519Signer {
	return &Ed25519Signer{
		priv:                 priv,
		pub:                  priv.Public().(ed25519.PublicKey),
		verificationMethodID: verificationMethodID,
	}
}

// Sign implements proof.Signer.
func (s *Ed25519Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, message), nil
}

// VerificationMethodID implements proof.Signer.
func (s *Ed25519Signer) VerificationMethodID() string { return s.verificationMethodID }

// PublicKeyMultibase returns the signer's public key, multibase-encoded
// base58-btc, suitable for inclusion as an updateKey or a verificationMethod
// publicKeyMultibase.
func (s *Ed25519Signer) PublicKeyMultibase() (string, error) {
	return multibase.Encode(multibase.Base58BTC, s.pub)
}

// PublicKey returns the raw Ed25519 public key.
func (s *Ed25519Signer) PublicKey() ed25519.PublicKey { return s.pub }

// Ed25519Verifier implements proof.Verifier using the standard library
// Ed25519 verification primitive.
type Ed25519Verifier struct{}

// Verify implements proof.Verifier.
func (Ed25519Verifier) Verify(signature, message, publicKey []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}
