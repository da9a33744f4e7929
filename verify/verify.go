// Package verify checks the output of a sort against its input.
//
// Files are memory-mapped read-only and scanned once. A scan yields the
// sortedness of the file, its value range, an order-independent multiset
// digest (the sum of the xxh3-128 hashes of every element) and an ordered
// xxhash-64 digest of the raw bytes. Two files hold the same multiset of
// values exactly when, with overwhelming probability, their multiset
// digests and counts agree.
package verify

import (
	"errors"
	"fmt"
	"math/bits"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	"github.com/zeebo/xxh3"

	"github.com/tamirms/extsort/blockio"
	exterrors "github.com/tamirms/extsort/errors"
)

// Digest is a 128-bit sum of element hashes.
type Digest struct {
	Lo uint64
	Hi uint64
}

func (d *Digest) add(h xxh3.Uint128) {
	var carry uint64
	d.Lo, carry = bits.Add64(d.Lo, h.Lo, 0)
	d.Hi, _ = bits.Add64(d.Hi, h.Hi, carry)
}

// String returns the digest as 32 hex digits.
func (d Digest) String() string {
	return fmt.Sprintf("%016x%016x", d.Hi, d.Lo)
}

// Summary describes the contents of one element file.
type Summary struct {
	Count int64

	// Sorted reports whether the elements are in non-decreasing order.
	// Otherwise FirstUnsorted is the index of the first element smaller
	// than its predecessor; it is -1 for sorted files.
	Sorted        bool
	FirstUnsorted int64

	// Min and Max are zero for an empty file.
	Min int64
	Max int64

	Multiset Digest
	Stream   uint64
}

// Summarize scans the file at path.
func Summarize(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size()%blockio.ElementSize != 0 {
		return nil, fmt.Errorf("%w: %s has %d bytes", exterrors.ErrMisalignedInput, path, st.Size())
	}
	if st.Size() == 0 {
		// mmap of an empty file fails on most platforms.
		return summarize(nil), nil
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	adviseSequential(mm)
	s := summarize([]byte(mm))
	if err := mm.Unmap(); err != nil {
		return nil, fmt.Errorf("unmap %s: %w", path, err)
	}
	return s, nil
}

func summarize(data []byte) *Summary {
	s := &Summary{
		Count:         int64(len(data) / blockio.ElementSize),
		Sorted:        true,
		FirstUnsorted: -1,
		Stream:        xxhash.Sum64(data),
	}
	var prev int64
	for i := range s.Count {
		off := i * blockio.ElementSize
		elem := data[off : off+blockio.ElementSize]
		v := blockio.Get(elem, 0)
		s.Multiset.add(xxh3.Hash128(elem))
		if i == 0 {
			s.Min, s.Max = v, v
		} else {
			if s.Sorted && v < prev {
				s.Sorted = false
				s.FirstUnsorted = i
			}
			s.Min = min(s.Min, v)
			s.Max = max(s.Max, v)
		}
		prev = v
	}
	return s
}

// Check verifies that output is sorted and holds the same multiset of
// values as input.
func Check(input, output string) error {
	in, err := Summarize(input)
	if err != nil {
		return fmt.Errorf("summarize input: %w", err)
	}
	out, err := Summarize(output)
	if err != nil {
		return fmt.Errorf("summarize output: %w", err)
	}
	return Compare(in, out)
}

// Compare checks the summaries of an input and its sorted output.
func Compare(in, out *Summary) error {
	var errs []error
	if !out.Sorted {
		errs = append(errs, fmt.Errorf("%w: element %d is smaller than its predecessor", exterrors.ErrNotSorted, out.FirstUnsorted))
	}
	switch {
	case in.Count != out.Count:
		errs = append(errs, fmt.Errorf("%w: %d elements in, %d out", exterrors.ErrNotPermutation, in.Count, out.Count))
	case in.Multiset != out.Multiset:
		errs = append(errs, fmt.Errorf("%w: multiset digest %s in, %s out", exterrors.ErrNotPermutation, in.Multiset, out.Multiset))
	}
	return errors.Join(errs...)
}
