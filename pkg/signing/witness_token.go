package signing

import (
	"crypto/ed25519"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// WitnessTokenClaims is an optional JWT envelope a witness can wrap its
// did-witness.json entry in when the channel delivering it cannot itself
// guarantee integrity (e.g. an unauthenticated relay). The core's witness
// quorum check (pkg/webvh) only ever consumes the decoded
// diddoc.WitnessProofEntry — this wrapper is a transport convenience, not a
// protocol requirement.
type WitnessTokenClaims struct {
	jwt.RegisteredClaims
	VersionID string `json:"versionId"`
}

// SignWitnessToken signs claims with priv using EdDSA.
func SignWitnessToken(priv ed25519.PrivateKey, kid string, claims WitnessTokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("signing: witness token: %w", err)
	}
	return signed, nil
}

// WitnessKeyFunc resolves the verification key for a witness JWT by kid.
func WitnessKeyFunc(keys map[string]ed25519.PublicKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("signing: unexpected signing method %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("signing: missing kid in witness token header")
		}
		key, ok := keys[kid]
		if !ok {
			return nil, fmt.Errorf("signing: unknown witness key %q", kid)
		}
		return key, nil
	}
}

// ParseWitnessToken verifies and decodes a witness token produced by
// SignWitnessToken.
func ParseWitnessToken(raw string, keys map[string]ed25519.PublicKey) (*WitnessTokenClaims, error) {
	claims := &WitnessTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, WitnessKeyFunc(keys))
	if err != nil {
		return nil, fmt.Errorf("signing: parse witness token: %w", err)
	}
	return claims, nil
}
