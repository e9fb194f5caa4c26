package canonicalize

import (
	"encoding/json"
	"testing"
)

func TestJCS_Sorting(t *testing.T) {
	// Map with unsorted keys
	input := map[string]interface{}{
		"c": 3,
		"a": 1,
		"b": 2,
	}

	// Expected: {"a":1,"b":2,"c":3}
	expected := `{"a":1,"b":2,"c":3}`

	b, err := JCS(input)
	if err != nil {
		t.Fatalf("JCS failed: %v", err)
	}

	if string(b) != expected {
		t.Errorf("Expected %s, got %s", expected, string(b))
	}
}

func TestJCS_RecursiveSorting(t *testing.T) {
	// Nested map
	input := map[string]interface{}{
		"z": map[string]interface{}{
			"y": "foo",
			"x": "bar",
		},
		"a": 1,
	}

	// Expected keys sorted at valid levels: {"a":1,"z":{"x":"bar","y":"foo"}}
	expected := `{"a":1,"z":{"x":"bar","y":"foo"}}`

	b, err := JCS(input)
	if err != nil {
		t.Fatalf("JCS failed: %v", err)
	}

	if string(b) != expected {
		t.Errorf("Expected %s, got %s", expected, string(b))
	}
}

func TestJCS_NoHTMLEscaping(t *testing.T) {
	// String with HTML characters
	input := map[string]string{
		"html": "<script>alert('xss')</script> &",
	}

	// Standard encoding/json produces: {"html":"\u003cscript\u003ealert('xss')\u003c/script\u003e \u0026"}
	// RFC 8785 requires: {"html":"<script>alert('xss')</script> &"}
	expected := `{"html":"<script>alert('xss')</script> &"}`

	b, err := JCS(input)
	if err != nil {
		t.Fatalf("JCS failed: %v", err)
	}

	if string(b) != expected {
		t.Errorf("Expected %s, got %s", expected, string(b))
	}
}

func TestJCS_StableAcrossConstruction(t *testing.T) {
	// Two inputs that are semantically identical but constructed differently
	v1 := map[string]interface{}{"a": 1, "b": 2}

	type S struct {
		B int `json:"b"`
		A int `json:"a"`
	}
	v2 := S{A: 1, B: 2}

	b1, err := JCS(v1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := JCS(v2)
	if err != nil {
		t.Fatal(err)
	}
	if string(b1) != string(b2) {
		t.Errorf("canonical form mismatch for semantically identical inputs: %s != %s", b1, b2)
	}
}

func TestGoWebPKI_MatchesRecursive(t *testing.T) {
	inputs := []any{
		map[string]interface{}{"c": 3, "a": 1, "b": 2},
		map[string]interface{}{"z": map[string]interface{}{"y": "foo", "x": "bar"}, "a": 1},
		map[string]interface{}{"html": "<script>alert('xss')</script> &"},
		[]any{"a", map[string]interface{}{"b": 1, "a": 2}, 3},
	}
	for _, in := range inputs {
		got, err := (GoWebPKI{}).Canonicalize(in)
		if err != nil {
			t.Fatalf("GoWebPKI.Canonicalize: %v", err)
		}
		want, err := (Recursive{}).Canonicalize(in)
		if err != nil {
			t.Fatalf("Recursive.Canonicalize: %v", err)
		}
		if string(got) != string(want) {
			t.Errorf("gowebpki/jcs output diverges from recursive marshaller:\n  gowebpki:  %s\n  recursive: %s", got, want)
		}
	}
}

func TestJCS_NumberTypes(t *testing.T) {
	// Ensure json.Number is respected
	input := map[string]interface{}{
		"num": json.Number("123.456"),
	}
	expected := `{"num":123.456}`

	b, err := JCS(input)
	if err != nil {
		t.Fatal(err)
	}

	if string(b) != expected {
		t.Errorf("Expected %s, got %s", expected, string(b))
	}
}

func TestJCSString_IsReachable(t *testing.T) {
	s, err := JCSString(map[string]int{"b": 2, "a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if s == "" {
		t.Fatal("expected non-empty string")
	}
}
