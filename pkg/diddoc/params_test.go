package diddoc

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUnmarshalAcceptsWitnessObject(t *testing.T) {
	raw := `{"method":"did:webvh:1.0","witness":{"threshold":2,"witnesses":[{"id":"did:example:w1"},{"id":"did:example:w2","weight":3}]}}`
	var p Parameters
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	if p.Witness == nil {
		t.Fatal("expected witness to be populated")
	}
	if p.Witness.Threshold != 2 {
		t.Errorf("threshold = %d, want 2", p.Witness.Threshold)
	}
	if len(p.Witness.Witnesses) != 2 {
		t.Fatalf("expected 2 witnesses, got %d", len(p.Witness.Witnesses))
	}
	if got := p.Witness.Witnesses[1].EffectiveWeight(); got != 3 {
		t.Errorf("explicit weight = %d, want 3", got)
	}
	if got := p.Witness.Witnesses[0].EffectiveWeight(); got != 1 {
		t.Errorf("default weight = %d, want 1", got)
	}
}

func TestUnmarshalAcceptsLegacyWitnessesField(t *testing.T) {
	raw := `{"witnesses":[{"id":"did:example:w1"},{"id":"did:example:w2"}],"witnessThreshold":1}`
	var p Parameters
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	if p.Witness == nil {
		t.Fatal("expected the legacy flat field to populate the witness object")
	}
	if p.Witness.Threshold != 1 {
		t.Errorf("threshold = %d, want 1", p.Witness.Threshold)
	}
	if len(p.Witness.Witnesses) != 2 {
		t.Errorf("expected 2 witnesses, got %d", len(p.Witness.Witnesses))
	}
}

func TestUnmarshalLegacyWitnessesDefaultsThresholdToCount(t *testing.T) {
	raw := `{"witnesses":[{"id":"did:example:w1"},{"id":"did:example:w2"}]}`
	var p Parameters
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	if p.Witness == nil || p.Witness.Threshold != 2 {
		t.Errorf("expected threshold to default to the witness count, got %+v", p.Witness)
	}
}

func TestMarshalEmitsOnlyObjectForm(t *testing.T) {
	p := Parameters{
		Method:  MethodID,
		Witness: &WitnessParams{Threshold: 1, Witnesses: []Witness{{ID: "did:example:w1"}}},
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, `"witness":{`) {
		t.Errorf("expected the object form on the wire, got %s", s)
	}
	if strings.Contains(s, `"witnessThreshold"`) {
		t.Errorf("legacy flat field leaked onto the wire: %s", s)
	}
}

func TestMergeStickyFields(t *testing.T) {
	portable := false
	prev := Parameters{
		Method:        MethodID,
		SCID:          "zGenesis",
		UpdateKeys:    []string{"zk1"},
		NextKeyHashes: []string{"zh1"},
		Portable:      &portable,
		Watchers:      []string{"https://watch.example"},
	}

	merged := Merge(&prev, Parameters{})
	if merged.Method != MethodID || merged.SCID != "zGenesis" {
		t.Errorf("method/scid did not stick: %+v", merged)
	}
	if len(merged.UpdateKeys) != 1 || merged.UpdateKeys[0] != "zk1" {
		t.Errorf("updateKeys did not stick: %v", merged.UpdateKeys)
	}
	if len(merged.NextKeyHashes) != 1 {
		t.Errorf("nextKeyHashes did not stick: %v", merged.NextKeyHashes)
	}
	if merged.IsPortable() {
		t.Error("portable=false did not stick")
	}
	if len(merged.Watchers) != 1 {
		t.Errorf("watchers did not stick: %v", merged.Watchers)
	}
}

func TestMergeExplicitResetToEmpty(t *testing.T) {
	prev := Parameters{UpdateKeys: []string{"zk1"}, NextKeyHashes: []string{"zh1"}}
	merged := Merge(&prev, Parameters{NextKeyHashes: []string{}})
	if len(merged.NextKeyHashes) != 0 {
		t.Errorf("present-but-empty slice should re-set to empty, got %v", merged.NextKeyHashes)
	}
	if len(merged.UpdateKeys) != 1 {
		t.Errorf("omitted field should stick, got %v", merged.UpdateKeys)
	}
}

func TestMergeSCIDNeverChanges(t *testing.T) {
	prev := Parameters{SCID: "zGenesis"}
	merged := Merge(&prev, Parameters{SCID: "zOther"})
	if merged.SCID != "zGenesis" {
		t.Errorf("scid must carry forward from genesis, got %q", merged.SCID)
	}
}

func TestMergeDeactivatedIsOneWay(t *testing.T) {
	prev := Parameters{Deactivated: true}
	merged := Merge(&prev, Parameters{Deactivated: false})
	if !merged.Deactivated {
		t.Error("deactivated must never unset once true")
	}
}

func TestIsPortableDefaultsTrue(t *testing.T) {
	if !(Parameters{}).IsPortable() {
		t.Error("expected portability to default to true")
	}
}
