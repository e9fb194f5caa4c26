package diddoc

import (
	"encoding/json"
	"fmt"
)

// Parameters carries the protocol delta declared by one log entry. Every
// field is optional after v1 and, when nil/absent, sticks to the value
// carried by the previous entry (see Merge) — a present-but-empty slice is a
// deliberate re-set to empty, distinct from omission, and survives both a
// JSON decode (encoding/json leaves an absent key's slice nil) and a Go
// struct literal built directly by a caller of CreateDID/UpdateDID.
type Parameters struct {
	Method        string         `json:"method,omitempty"`
	SCID          string         `json:"scid,omitempty"`
	UpdateKeys    []string       `json:"updateKeys,omitempty"`
	NextKeyHashes []string       `json:"nextKeyHashes,omitempty"`
	Portable      *bool          `json:"portable,omitempty"`
	Witness       *WitnessParams `json:"witness,omitempty"`
	Watchers      []string       `json:"watchers,omitempty"`
	Deactivated   bool           `json:"deactivated,omitempty"`
}

// legacyParameters mirrors Parameters' wire shape but additionally accepts
// the legacy flat "witnesses" field some implementations emit instead of
// the nested "witness" object. Both are accepted on read; only the object
// form is emitted on write.
type legacyParameters struct {
	Method        string         `json:"method,omitempty"`
	SCID          string         `json:"scid,omitempty"`
	UpdateKeys    []string       `json:"updateKeys,omitempty"`
	NextKeyHashes []string       `json:"nextKeyHashes,omitempty"`
	Portable      *bool          `json:"portable,omitempty"`
	Witness       *WitnessParams `json:"witness,omitempty"`
	Witnesses     []Witness      `json:"witnesses,omitempty"`
	WitnessThresh *int           `json:"witnessThreshold,omitempty"`
	Watchers      []string       `json:"watchers,omitempty"`
	Deactivated   bool           `json:"deactivated,omitempty"`
}

// UnmarshalJSON accepts both the object form of "witness" and the legacy
// flat "witnesses"/"witnessThreshold" pair.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	var lp legacyParameters
	if err := json.Unmarshal(data, &lp); err != nil {
		return fmt.Errorf("diddoc: parameters: %w", err)
	}

	p.Method = lp.Method
	p.SCID = lp.SCID
	p.UpdateKeys = lp.UpdateKeys
	p.NextKeyHashes = lp.NextKeyHashes
	p.Portable = lp.Portable
	p.Watchers = lp.Watchers
	p.Deactivated = lp.Deactivated

	switch {
	case lp.Witness != nil:
		p.Witness = lp.Witness
	case lp.Witnesses != nil:
		threshold := len(lp.Witnesses)
		if lp.WitnessThresh != nil {
			threshold = *lp.WitnessThresh
		}
		p.Witness = &WitnessParams{Witnesses: lp.Witnesses, Threshold: threshold}
	}

	return nil
}

// MarshalJSON always emits the object form of witness, never the legacy
// flat fields.
func (p Parameters) MarshalJSON() ([]byte, error) {
	type alias struct {
		Method        string         `json:"method,omitempty"`
		SCID          string         `json:"scid,omitempty"`
		UpdateKeys    []string       `json:"updateKeys,omitempty"`
		NextKeyHashes []string       `json:"nextKeyHashes,omitempty"`
		Portable      *bool          `json:"portable,omitempty"`
		Witness       *WitnessParams `json:"witness,omitempty"`
		Watchers      []string       `json:"watchers,omitempty"`
		Deactivated   bool           `json:"deactivated,omitempty"`
	}
	return json.Marshal(alias{
		Method:        p.Method,
		SCID:          p.SCID,
		UpdateKeys:    p.UpdateKeys,
		NextKeyHashes: p.NextKeyHashes,
		Portable:      p.Portable,
		Witness:       p.Witness,
		Watchers:      p.Watchers,
		Deactivated:   p.Deactivated,
	})
}

// Merge applies delta on top of prev, carrying forward any field delta
// leaves nil — sticky unless re-set. A field present in delta but
// nil is absent; a non-nil (even empty) slice or non-nil pointer is an
// explicit re-set. Merge never mutates prev or delta.
func Merge(prev *Parameters, delta Parameters) Parameters {
	out := delta
	if prev == nil {
		return out
	}

	out.SCID = prev.SCID
	if out.SCID == "" {
		out.SCID = delta.SCID
	}
	if out.Method == "" {
		out.Method = prev.Method
	}
	if delta.UpdateKeys == nil {
		out.UpdateKeys = prev.UpdateKeys
	}
	if delta.NextKeyHashes == nil {
		out.NextKeyHashes = prev.NextKeyHashes
	}
	if delta.Portable == nil {
		out.Portable = prev.Portable
	}
	if delta.Witness == nil {
		out.Witness = prev.Witness
	}
	if delta.Watchers == nil {
		out.Watchers = prev.Watchers
	}
	// Deactivated is sticky-forward only in the sense that once true it can
	// never be unset; callers enforce the "no entry follows deactivation"
	// invariant separately.
	out.Deactivated = prev.Deactivated || delta.Deactivated
	return out
}

// IsPortable reports the effective portability, defaulting to true when
// unset anywhere in the chain.
func (p Parameters) IsPortable() bool {
	if p.Portable == nil {
		return true
	}
	return *p.Portable
}
