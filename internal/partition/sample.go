// Package partition implements pivot sampling, pivot selection and the
// streaming partitioner used by external quicksort.
package partition

import (
	"io"
	"math/rand/v2"

	"github.com/tamirms/extsort/blockio"
	"github.com/tamirms/extsort/internal/bits"
)

// SampleBlock returns the elements of one block of r chosen uniformly at
// random. It costs exactly one block read for a non-empty file.
func SampleBlock(r *blockio.Reader, rng *rand.Rand) ([]int64, error) {
	nb := r.Blocks()
	if nb == 0 {
		return nil, nil
	}
	idx := bits.FastRange(rng.Uint64(), uint64(nb))
	p := make([]byte, r.BlockSize())
	n, err := r.ReadBlockAt(int64(idx), p)
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	blockio.Decode(out, p)
	return out, nil
}

// SampleReservoir draws a uniform sample of at most capacity elements from
// the whole of r (Algorithm R). It reads the file once.
func SampleReservoir(r *blockio.Reader, capacity int, rng *rand.Rand) ([]int64, error) {
	if capacity <= 0 {
		return nil, nil
	}
	res := make([]int64, 0, min(int64(capacity), r.Len()))
	var seen int64
	for {
		v, err := r.Next()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		seen++
		if len(res) < capacity {
			res = append(res, v)
			continue
		}
		if j := rng.Int64N(seen); j < int64(capacity) {
			res[j] = v
		}
	}
}
