package crypto

import "testing"

func TestCanonicalizeJSON(t *testing.T) {
	// key order and whitespace are normalized
	got, err := CanonicalizeJSON([]byte(`{ "b": 2, "a": 1 }`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON() error = %v", err)
	}
	want := `{"a":1,"b":2}`
	if string(got) != want {
		t.Errorf("CanonicalizeJSON() = %s, want %s", got, want)
	}

	// invalid json
	if _, err := CanonicalizeJSON([]byte(`{"test": "value"`)); err == nil {
		t.Fatal("CanonicalizeJSON() expected error, got nil")
	}
}
