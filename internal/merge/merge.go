// Package merge implements the k-way merge of sorted element streams.
package merge

import (
	"io"

	"github.com/tamirms/extsort/blockio"
)

// Source is a sorted stream of elements.
type Source interface {
	Next() (int64, error)
}

// Sink receives merged elements.
type Sink interface {
	Append(v int64) error
}

// Merge writes the union of srcs to dst in non-decreasing order and
// returns the number of elements written. Each source must itself be
// sorted. Empty sources are skipped; equal values are taken from the
// lower-indexed source first.
func Merge(dst Sink, srcs []Source) (int64, error) {
	h := newHeadHeap(len(srcs))
	for i, s := range srcs {
		v, err := s.Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return 0, err
		}
		h.push(v, i)
	}

	var n int64
	for h.len() > 0 {
		top := h.top()
		if err := dst.Append(top.value); err != nil {
			return n, err
		}
		n++

		v, err := srcs[top.src].Next()
		switch {
		case err == io.EOF:
			h.pop()
		case err != nil:
			return n, err
		default:
			h.replaceTop(v)
		}
	}
	return n, nil
}

// Readers adapts block readers to the Source interface.
func Readers(rs []*blockio.Reader) []Source {
	srcs := make([]Source, len(rs))
	for i, r := range rs {
		srcs[i] = r
	}
	return srcs
}
