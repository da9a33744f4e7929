package extsort

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamirms/extsort/blockio"
)

const (
	testSeed1 = 0x243F6A8885A308D3
	testSeed2 = 0x13198A2E03707344
)

// newTestRNG returns a generator seeded from the test name, so every test
// sees the same values on every run.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

func writeInts(t testing.TB, dir, name string, vals []int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	buf := make([]byte, len(vals)*blockio.ElementSize)
	blockio.Encode(buf, vals)
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func readInts(t testing.TB, path string) []int64 {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Zero(t, len(data)%blockio.ElementSize)
	vals := make([]int64, len(data)/blockio.ElementSize)
	blockio.Decode(vals, data)
	return vals
}

func randomInts(rng *rand.Rand, n int, spread int64) []int64 {
	vals := make([]int64, n)
	for i := range vals {
		if spread <= 0 {
			vals[i] = int64(rng.Uint64())
		} else {
			vals[i] = rng.Int64N(spread)
		}
	}
	return vals
}

// requireEmptyDir fails if dir holds any entry, e.g. a leftover scratch
// directory or temp file.
func requireEmptyDir(t testing.TB, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Empty(t, names, "leftover files in %s", dir)
}

var algorithms = []Algorithm{AlgoMergeSort, AlgoQuickSort}
