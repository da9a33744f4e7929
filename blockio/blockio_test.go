package blockio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	exterrors "github.com/tamirms/extsort/errors"
)

func writeFile(t *testing.T, vals []int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	buf := make([]byte, len(vals)*ElementSize)
	Encode(buf, vals)
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func readFile(t *testing.T, path string) []int64 {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := make([]int64, len(data)/ElementSize)
	Decode(out, data)
	return out
}

func TestCounterNil(t *testing.T) {
	var c *Counter
	c.addRead()
	c.addWrite()
	c.Reset()
	require.Equal(t, uint64(0), c.Total())
	require.Equal(t, Snapshot{}, c.Snapshot())
}

func TestSnapshotSub(t *testing.T) {
	a := Snapshot{Reads: 10, Writes: 7}
	b := Snapshot{Reads: 4, Writes: 2}
	require.Equal(t, Snapshot{Reads: 6, Writes: 5}, a.Sub(b))
	require.Equal(t, uint64(17), a.Total())
}

// TestReadBlockCountsOperations verifies that every transfer counts one read
// regardless of how many bytes it moved, and that the short final block is
// zero-padded.
func TestReadBlockCountsOperations(t *testing.T) {
	path := writeFile(t, []int64{1, 2, 3, 4, 5})
	var c Counter
	r, err := OpenReader(path, &c, 16, 16)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, int64(5), r.Len())
	require.Equal(t, int64(3), r.Blocks())

	p := make([]byte, 16)
	for i := range p {
		p[i] = 0xFF
	}
	var got []int64
	for {
		n, err := r.ReadBlock(p)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		for i := range n {
			got = append(got, Get(p, i))
		}
		if n == 1 {
			require.Equal(t, int64(0), Get(p, 1), "short block must be zero-padded")
		}
	}
	require.Equal(t, []int64{1, 2, 3, 4, 5}, got)
	require.Equal(t, uint64(3), c.Reads())
	require.Equal(t, uint64(0), c.Writes())
}

func TestReadBlockAt(t *testing.T) {
	path := writeFile(t, []int64{10, 11, 12, 13, 14, 15, 16})
	var c Counter
	r, err := OpenReader(path, &c, 16, 64)
	require.NoError(t, err)
	defer r.Close()

	p := make([]byte, 16)
	n, err := r.ReadBlockAt(3, p)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, int64(16), Get(p, 0))

	n, err = r.ReadBlockAt(1, p)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []int64{12, 13}, []int64{Get(p, 0), Get(p, 1)})

	_, err = r.ReadBlockAt(4, p)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, uint64(2), c.Reads())
}

func TestNextAndFill(t *testing.T) {
	vals := make([]int64, 100)
	for i := range vals {
		vals[i] = int64(i*7 - 300)
	}
	path := writeFile(t, vals)

	t.Run("Next", func(t *testing.T) {
		var c Counter
		r, err := OpenReader(path, &c, 64, 128)
		require.NoError(t, err)
		defer r.Close()
		var got []int64
		for {
			v, err := r.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			got = append(got, v)
		}
		require.Equal(t, vals, got)
		// 800 bytes in 64-byte blocks.
		require.Equal(t, uint64(13), c.Reads())
		require.Equal(t, int64(0), r.Remaining())
	})

	t.Run("Fill", func(t *testing.T) {
		r, err := OpenReader(path, nil, 64, 64)
		require.NoError(t, err)
		defer r.Close()
		dst := make([]int64, 30)
		n, err := r.Fill(dst)
		require.NoError(t, err)
		require.Equal(t, 30, n)
		require.Equal(t, vals[:30], dst)
		require.Equal(t, int64(70), r.Remaining())

		big := make([]int64, 100)
		n, err = r.Fill(big)
		require.NoError(t, err)
		require.Equal(t, 70, n)
		require.Equal(t, vals[30:], big[:n])

		_, err = r.Fill(big)
		require.ErrorIs(t, err, io.EOF)
	})
}

func TestBufferSmallerThanBlock(t *testing.T) {
	path := writeFile(t, []int64{3, 1, 2})
	var c Counter
	r, err := OpenReader(path, &c, 4096, ElementSize)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, ElementSize, r.BlockSize())
	dst := make([]int64, 3)
	n, err := r.Fill(dst)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, uint64(3), c.Reads())
}

func TestWriterFlushCountsPartialBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	var c Counter
	w, err := CreateWriter(path, &c, 32, 64)
	require.NoError(t, err)

	for i := range 11 {
		require.NoError(t, w.Append(int64(i)))
	}
	require.NoError(t, w.Close())

	// 88 bytes: buffer of 64 flushed as two 32-byte blocks, then 24 bytes.
	require.Equal(t, uint64(3), c.Writes())
	require.Equal(t, int64(11), w.Count())
	got := readFile(t, path)
	require.Len(t, got, 11)
	require.Equal(t, int64(10), got[10])
}

func TestWriterAppendSliceAndPreallocate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	w, err := CreateWriter(path, nil, 4096, 4096)
	require.NoError(t, err)
	require.NoError(t, w.Preallocate(100))
	vals := []int64{-5, 9, 0, 42}
	require.NoError(t, w.AppendSlice(vals))
	require.NoError(t, w.Close())

	// Close trims the reservation to what was written.
	require.Equal(t, vals, readFile(t, path))
}

func TestWriteBlockTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	w, err := CreateWriter(path, nil, 16, 16)
	require.NoError(t, err)
	defer w.Abort()
	require.Error(t, w.WriteBlock(make([]byte, 24)))
}

func TestCopy(t *testing.T) {
	vals := []int64{5, 4, 3, 2, 1, 0, -1}
	src := writeFile(t, vals)
	dstPath := filepath.Join(t.TempDir(), "copy.bin")

	var c Counter
	r, err := OpenReader(src, &c, 16, 16)
	require.NoError(t, err)
	defer r.Close()
	w, err := CreateWriter(dstPath, &c, 16, 16)
	require.NoError(t, err)

	n, err := Copy(w, r)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Equal(t, int64(7), n)
	require.Equal(t, vals, readFile(t, dstPath))
	require.Equal(t, uint64(4), c.Reads())
	require.Equal(t, uint64(4), c.Writes())
}

func TestOpenErrors(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		_, err := OpenReader(filepath.Join(t.TempDir(), "nope.bin"), nil, 4096, 4096)
		require.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("Misaligned", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "odd.bin")
		require.NoError(t, os.WriteFile(path, make([]byte, 13), 0o644))
		_, err := OpenReader(path, nil, 4096, 4096)
		require.ErrorIs(t, err, exterrors.ErrMisalignedInput)
		_, err = Elements(path)
		require.ErrorIs(t, err, exterrors.ErrMisalignedInput)
	})

	t.Run("BadBlockSize", func(t *testing.T) {
		path := writeFile(t, []int64{1})
		for _, bs := range []int{0, 4, 12, -8} {
			_, err := OpenReader(path, nil, bs, 4096)
			require.ErrorIs(t, err, exterrors.ErrInvalidBlockSize, "block size %d", bs)
		}
	})

	t.Run("UnwritableDir", func(t *testing.T) {
		_, err := CreateWriter(filepath.Join(t.TempDir(), "missing", "out.bin"), nil, 4096, 4096)
		require.Error(t, err)
	})
}

func TestElements(t *testing.T) {
	path := writeFile(t, []int64{1, 2, 3})
	n, err := Elements(path)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}
