package bits

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// TestFastRangeMonotonicity verifies that for a fixed n,
// FastRange is monotone: x1 < x2 implies FastRange(x1,n) <= FastRange(x2,n).
func TestFastRangeMonotonicity(t *testing.T) {
	rng := newTestRNG(t)
	for i := range 10000 {
		n := rng.Uint64N(math.MaxUint64) + 1
		x1, x2 := rng.Uint64(), rng.Uint64()
		if x1 > x2 {
			x1, x2 = x2, x1
		}
		require.LessOrEqual(t, FastRange(x1, n), FastRange(x2, n), "iter %d", i)
	}
}

// TestFastRangeRange verifies that the result is always in [0, n).
func TestFastRangeRange(t *testing.T) {
	rng := newTestRNG(t)
	for i := range 10000 {
		n := rng.Uint64N(1<<20) + 1
		require.Less(t, FastRange(rng.Uint64(), n), n, "iter %d", i)
	}
}

func TestFastRangeEdges(t *testing.T) {
	require.Equal(t, uint64(0), FastRange(math.MaxUint64, 0))
	require.Equal(t, uint64(0), FastRange(math.MaxUint64, 1))
	require.Equal(t, uint64(0), FastRange(0, 1000))
	require.Equal(t, uint64(999), FastRange(math.MaxUint64, 1000))
}
