package random

import (
	"math/rand"
	"testing"
)

func TestNewSeedVaries(t *testing.T) {
	seen := make(map[int64]struct{})
	for i := 0; i < 8; i++ {
		seed, err := NewSeed()
		if err != nil {
			t.Fatalf("NewSeed returned error: %v", err)
		}
		seen[seed] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected distinct seeds, got %d unique", len(seen))
	}
}

func TestNewSourceIsUsable(t *testing.T) {
	rng := rand.New(NewSource())
	if n := rng.Intn(10); n < 0 || n >= 10 {
		t.Fatalf("unexpected value %d", n)
	}
}
