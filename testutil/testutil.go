package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Int64 returns a pseudo-random int64 covering the full signed range.
func (r *RNG) Int64() int64 {
	return int64(r.Uint64())
}

// IntBits returns a pseudo-random signed value that fits in bits (8..64).
func (r *RNG) IntBits(bits int) int64 {
	return r.Int64() >> (64 - bits)
}

// UintBits returns a pseudo-random unsigned value that fits in bits (8..64).
func (r *RNG) UintBits(bits int) uint64 {
	return r.Uint64() >> (64 - bits)
}

// Bytes returns n pseudo-random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	_, _ = r.rand.Read(b)
	return b
}

// BytesExcluding returns n pseudo-random bytes, none of which is in exclude.
func (r *RNG) BytesExcluding(n int, exclude ...byte) []byte {
	var banned [256]bool
	for _, c := range exclude {
		banned[c] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		c := byte(r.rand.Intn(256))
		for banned[c] {
			c = byte(r.rand.Intn(256))
		}
		b[i] = c
	}
	return b
}
