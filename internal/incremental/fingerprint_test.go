package incremental

import "testing"

func TestFingerprintIsStable(t *testing.T) {
	content := "package main\n\nfunc main() {}\n"
	if Fingerprint(content) != Fingerprint(content) {
		t.Error("identical content must fingerprint identically")
	}
}

func TestFingerprintDetectsChange(t *testing.T) {
	a := Fingerprint("hello")
	b := Fingerprint("hello ")
	if a == b {
		t.Error("distinct content should fingerprint differently")
	}
}

func TestFingerprintEmptyContent(t *testing.T) {
	if Fingerprint("") == "" {
		t.Error("empty content still needs a fingerprint")
	}
}
