package internal

import "testing"

func TestFastHash(t *testing.T) {
	if FastHash("10.0.0.1") != FastHash("10.0.0.1") {
		t.Error("FastHash is not deterministic")
	}

	if FastHash("10.0.0.1") == FastHash("10.0.0.2") {
		t.Error("distinct inputs hashed to the same value")
	}
}
