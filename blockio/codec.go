package blockio

import (
	"encoding/binary"
	"fmt"
	"os"

	exterrors "github.com/tamirms/extsort/errors"
)

const (
	// ElementSize is the on-disk size of one element in bytes.
	ElementSize = 8

	// DefaultBlockSize is the default block size in bytes.
	DefaultBlockSize = 4096
)

// Get decodes the i-th element of b.
func Get(b []byte, i int) int64 {
	return int64(binary.LittleEndian.Uint64(b[i*ElementSize:]))
}

// Put encodes v as the i-th element of b.
func Put(b []byte, i int, v int64) {
	binary.LittleEndian.PutUint64(b[i*ElementSize:], uint64(v))
}

// Decode fills dst from src and returns the number of elements decoded.
func Decode(dst []int64, src []byte) int {
	n := min(len(dst), len(src)/ElementSize)
	for i := range n {
		dst[i] = Get(src, i)
	}
	return n
}

// Encode writes src into dst and returns the number of elements encoded.
func Encode(dst []byte, src []int64) int {
	n := min(len(src), len(dst)/ElementSize)
	for i := range n {
		Put(dst, i, src[i])
	}
	return n
}

// ValidateBlockSize checks that blockSize is a positive multiple of ElementSize.
func ValidateBlockSize(blockSize int) error {
	if blockSize < ElementSize || blockSize%ElementSize != 0 {
		return fmt.Errorf("%w: %d", exterrors.ErrInvalidBlockSize, blockSize)
	}
	return nil
}

// Elements returns the number of elements stored in the file at path.
// Returns ErrMisalignedInput if the file size is not a multiple of ElementSize.
func Elements(path string) (int64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if st.Size()%ElementSize != 0 {
		return 0, fmt.Errorf("%w: %s has %d bytes", exterrors.ErrMisalignedInput, path, st.Size())
	}
	return st.Size() / ElementSize, nil
}

// bufferBytes rounds size down to a whole number of elements, keeping at least one.
func bufferBytes(size int) int {
	return max(ElementSize, size-size%ElementSize)
}
