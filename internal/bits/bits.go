// Package bits provides low-level bit manipulation primitives.
package bits

import "math/bits"

// FastRange maps a 64-bit random value uniformly to [0, n).
// Uses the "fastrange" technique: multiply and take high bits.
// This is the standard way to map random values to ranges without modulo bias.
func FastRange(x, n uint64) uint64 {
	if n == 0 {
		return 0
	}
	hi, _ := bits.Mul64(x, n)
	return hi
}
