package extsort

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/tamirms/extsort/blockio"
)

// sortInMemory reads the n elements of src, sorts them and writes them to
// dst. src and dst may be the same file: the reader is closed before the
// writer truncates it.
func (s *sorter) sortInMemory(src, dst string, n int64) error {
	vals := make([]int64, n)

	r, err := blockio.OpenReader(src, s.counter, s.blockSize, s.ioBlock)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	got, err := r.Fill(vals)
	if err == io.EOF {
		err = nil
	}
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if int64(got) != n {
		return fmt.Errorf("read %s: got %d of %d elements", src, got, n)
	}

	slices.Sort(vals)
	return s.writeSorted(dst, vals)
}

// writeSorted creates (or truncates) path and writes vals through one
// transfer-unit buffer.
func (s *sorter) writeSorted(path string, vals []int64) error {
	w, err := blockio.CreateWriter(path, s.counter, s.blockSize, s.ioBlock)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := w.Preallocate(int64(len(vals))); err != nil {
		return errors.Join(err, w.Abort())
	}
	if err := w.AppendSlice(vals); err != nil {
		return errors.Join(err, w.Abort())
	}
	return w.Close()
}
