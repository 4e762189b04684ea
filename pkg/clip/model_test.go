package clip

import (
	"testing"
)

func TestFingerprintDeterministic(t *testing.T) {
	t.Parallel()

	a := Fingerprint([]byte("hello"))
	b := Fingerprint([]byte("hello"))
	if a != b {
		t.Errorf("identical bytes produced different fingerprints: %s vs %s", a, b)
	}

	c := Fingerprint([]byte("hello "))
	if a == c {
		t.Errorf("distinct bytes produced the same fingerprint %s", a)
	}
}

func TestFingerprintSourceIndependent(t *testing.T) {
	t.Parallel()

	// same bytes from different "sources" (a string copy and a raw
	// slice) must collapse to one fingerprint
	typed := []byte("the quick brown fox")
	copied := []byte(string(typed))
	if Fingerprint(typed) != Fingerprint(copied) {
		t.Error("fingerprint depends on byte slice identity, not content")
	}
}

func TestHashScanValueRoundtrip(t *testing.T) {
	t.Parallel()

	orig := Fingerprint([]byte("roundtrip"))

	v, err := orig.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned Hash
	if err := scanned.Scan(v); err != nil {
		t.Fatalf("Scan(string) failed: %v", err)
	}
	if scanned != orig {
		t.Errorf("roundtrip via string: got %s, want %s", scanned, orig)
	}

	scanned = 0
	if err := scanned.Scan([]byte(orig.String())); err != nil {
		t.Fatalf("Scan([]byte) failed: %v", err)
	}
	if scanned != orig {
		t.Errorf("roundtrip via []byte: got %s, want %s", scanned, orig)
	}
}

func TestHashScanNil(t *testing.T) {
	t.Parallel()

	h := Hash(42)
	if err := h.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if h != 0 {
		t.Errorf("Scan(nil) left %s, want 0", h)
	}
}

func TestHashScanUnsupported(t *testing.T) {
	t.Parallel()

	var h Hash
	if err := h.Scan(3.14); err == nil {
		t.Error("expected error scanning float64")
	}
}
