// Package random builds math/rand sources seeded from crypto/rand so that
// game code never touches the global source and tests can inject fixed seeds.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewSource returns a source seeded by NewSeed, falling back to the clock
// when the system entropy pool is unavailable.
func NewSource() rand.Source {
	seed, err := NewSeed()
	if err != nil {
		seed = time.Now().UnixNano()
	}
	return rand.NewSource(seed)
}
