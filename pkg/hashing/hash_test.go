package hashing

import "testing"

func TestDigest_Deterministic(t *testing.T) {
	d1, err := Digest([]byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	d2, err := Digest([]byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if d1 != d2 {
		t.Errorf("Digest not deterministic: %s != %s", d1, d2)
	}
	if d1[0] != 'z' {
		t.Errorf("expected base58-btc 'z' prefix, got %q", d1)
	}
}

func TestDigest_DifferentInputsDiffer(t *testing.T) {
	a, _ := Digest([]byte(`{"a":1}`))
	b, _ := Digest([]byte(`{"a":2}`))
	if a == b {
		t.Error("expected distinct digests for distinct inputs")
	}
}

func TestCanonicalDigest_KeyOrderInsensitive(t *testing.T) {
	a, err := CanonicalDigest(map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatal(err)
	}
	b, err := CanonicalDigest(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("expected canonicalization to make key order irrelevant: %s != %s", a, b)
	}
}

func TestDecode_RoundTrips(t *testing.T) {
	encoded, err := Digest([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	digest, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(digest) != 32 {
		t.Errorf("expected 32-byte SHA-256 digest, got %d bytes", len(digest))
	}
}

func TestEqual_ConstantTimeCompare(t *testing.T) {
	a, _ := Digest([]byte("x"))
	b, _ := Digest([]byte("x"))
	c, _ := Digest([]byte("y"))
	if !Equal(a, b) {
		t.Error("expected equal digests of identical input to compare equal")
	}
	if Equal(a, c) {
		t.Error("expected digests of distinct input to compare unequal")
	}
}

func TestStripFields(t *testing.T) {
	type entry struct {
		VersionID string `json:"versionId"`
		State     string `json:"state"`
		Proof     string `json:"proof"`
	}
	m, err := StripFields(entry{VersionID: "1-abc", State: "x", Proof: "y"}, "versionId", "proof")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m["versionId"]; ok {
		t.Error("expected versionId to be stripped")
	}
	if _, ok := m["proof"]; ok {
		t.Error("expected proof to be stripped")
	}
	if m["state"] != "x" {
		t.Errorf("expected state to survive stripping, got %v", m["state"])
	}
}
