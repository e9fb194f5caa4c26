// Package diddoc holds the data types the did:webvh log protocol engine
// reads and writes: log entries, their sticky parameters, the resolution
// metadata accumulated during replay, and the narrow slice of a DID document
// the core must understand (identifier, verification methods, services).
//
// The core never interprets DID-document semantics beyond these fields;
// everything else travels as opaque JSON.
package diddoc

import "encoding/json"

// PlaceholderSCID is the sentinel substituted for the SCID while hashing the
// genesis entry, chosen to be syntactically invalid as a real SCID.
const PlaceholderSCID = "{SCID}"

// MethodID is the protocol identifier recorded in parameters.method.
const MethodID = "did:webvh:1.0"

// LogEntry is one line of a did:webvh log.
type LogEntry struct {
	VersionID   string          `json:"versionId"`
	VersionTime string          `json:"versionTime"`
	Parameters  Parameters      `json:"parameters"`
	State       json.RawMessage `json:"state"`
	Proof       []Proof         `json:"proof,omitempty"`
}

// Proof is a Data Integrity proof, fixed to the eddsa-jcs-2022 cryptosuite.
type Proof struct {
	Type               string `json:"type"`
	Cryptosuite        string `json:"cryptosuite"`
	Created            string `json:"created"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	ProofValue         string `json:"proofValue,omitempty"`
}

// Witness describes a single witness entitled to co-sign the tip.
type Witness struct {
	ID     string `json:"id"`
	Weight int    `json:"weight,omitempty"`
}

// WitnessParams is the object form of the witness parameter.
type WitnessParams struct {
	Witnesses []Witness `json:"witnesses"`
	Threshold int       `json:"threshold"`
}

// EffectiveWeight returns w's quorum weight, defaulting to 1.
func (w Witness) EffectiveWeight() int {
	if w.Weight <= 0 {
		return 1
	}
	return w.Weight
}

// WitnessProofEntry is one record of a did-witness.json proof file.
type WitnessProofEntry struct {
	VersionID string  `json:"versionId"`
	Proof     []Proof `json:"proof"`
}

// VerificationMethod is the narrow slice of a DID verification method the
// core reads: identifier, controller, and the public key material. Private
// key material (SecretKeyMultibase) must never be emitted by the core and
// is stripped before a document is sealed into state.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
	SecretKeyMultibase string `json:"secretKeyMultibase,omitempty"`
}

// Service is a DID service endpoint entry.
type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// Document is the subset of a DID document the core constructs, hashes, and
// injects default services into. Fields outside this set pass through
// untouched as part of State's raw JSON.
type Document struct {
	Context            []string             `json:"@context,omitempty"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []string             `json:"authentication,omitempty"`
	AssertionMethod    []string             `json:"assertionMethod,omitempty"`
	Service            []Service            `json:"service,omitempty"`
}

// Metadata is the accumulator produced by replaying a log end-to-end.
type Metadata struct {
	VersionID     string        `json:"versionId"`
	Created       string        `json:"created"`
	Updated       string        `json:"updated"`
	SCID          string        `json:"scid"`
	UpdateKeys    []string      `json:"updateKeys"`
	NextKeyHashes []string      `json:"nextKeyHashes,omitempty"`
	Prerotation   bool          `json:"prerotation"`
	Portable      bool          `json:"portable"`
	Deactivated   bool          `json:"deactivated"`
	Witness       WitnessParams `json:"witness,omitempty"`
	Watchers      []string      `json:"watchers,omitempty"`
}
