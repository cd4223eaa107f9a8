// Package testutil provides testing utilities for cstdio.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG with helpers for generating
// random integers of every C width and random byte strings.
//
// # Random Inputs
//
//	rng := testutil.NewRNG(seed)
//	lit := rng.BytesExcluding(64, '%') // literal-only format
//	v := rng.Int64()                   // full 64-bit range
package testutil
