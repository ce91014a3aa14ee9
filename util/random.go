package util

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Random is a uniform integer source. *rand.Rand satisfies it.
type Random interface {
	IntN(n int) int
}

// NewSeed reads a seed from crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// NewRandom returns a PCG source seeded from crypto/rand, falling back to the
// runtime-seeded global generator when the system entropy source fails.
func NewRandom() Random {
	seed1, err1 := NewSeed()
	seed2, err2 := NewSeed()
	if err1 != nil || err2 != nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed1, seed2))
}
