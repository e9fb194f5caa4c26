package signing

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mindburn-Labs/didwebvh/pkg/proof"
)

var (
	_ proof.Signer   = (*Ed25519Signer)(nil)
	_ proof.Verifier = Ed25519Verifier{}
)

func TestEd25519Signer_SignVerifyRoundTrip(t *testing.T) {
	signer, err := NewEd25519Signer("did:key:z6Mk...#z6Mk...")
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("hello webvh")
	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatal(err)
	}
	if !(Ed25519Verifier{}).Verify(sig, msg, signer.PublicKey()) {
		t.Error("expected signature to verify against the signer's own public key")
	}
}

func TestEd25519Signer_VerifyRejectsTamperedMessage(t *testing.T) {
	signer, err := NewEd25519Signer("did:key:z6Mk...#z6Mk...")
	if err != nil {
		t.Fatal(err)
	}
	sig, err := signer.Sign([]byte("original"))
	if err != nil {
		t.Fatal(err)
	}
	if (Ed25519Verifier{}).Verify(sig, []byte("tampered"), signer.PublicKey()) {
		t.Error("expected verification to fail for a tampered message")
	}
}

func TestEd25519Signer_PublicKeyMultibase(t *testing.T) {
	signer, err := NewEd25519Signer("vm-1")
	if err != nil {
		t.Fatal(err)
	}
	mb, err := signer.PublicKeyMultibase()
	if err != nil {
		t.Fatal(err)
	}
	if len(mb) == 0 || mb[0] != 'z' {
		t.Errorf("expected base58-btc multibase prefix 'z', got %q", mb)
	}
}

func TestEd25519Verifier_RejectsWrongKeySize(t *testing.T) {
	if (Ed25519Verifier{}).Verify([]byte("sig"), []byte("msg"), []byte("too-short")) {
		t.Error("expected Verify to reject an undersized public key")
	}
}

func TestWitnessToken_SignAndParseRoundTrip(t *testing.T) {
	signer, err := NewEd25519Signer("did:key:witness-1#witness-1")
	if err != nil {
		t.Fatal(err)
	}
	claims := WitnessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		VersionID: "1-zGenesisHash",
	}
	raw, err := SignWitnessToken(signer.priv, "witness-1", claims)
	if err != nil {
		t.Fatal(err)
	}

	keys := map[string]ed25519.PublicKey{"witness-1": signer.PublicKey()}
	parsed, err := ParseWitnessToken(raw, keys)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.VersionID != "1-zGenesisHash" {
		t.Errorf("expected versionId to round trip, got %q", parsed.VersionID)
	}
}

func TestWitnessToken_RejectsUnknownKid(t *testing.T) {
	signer, err := NewEd25519Signer("did:key:witness-1#witness-1")
	if err != nil {
		t.Fatal(err)
	}
	claims := WitnessTokenClaims{VersionID: "1-zGenesisHash"}
	raw, err := SignWitnessToken(signer.priv, "witness-1", claims)
	if err != nil {
		t.Fatal(err)
	}
	keys := map[string]ed25519.PublicKey{"someone-else": signer.PublicKey()}
	_, err = ParseWitnessToken(raw, keys)
	if err == nil {
		t.Error("expected ParseWitnessToken to fail for an unrecognized kid")
	}
}
