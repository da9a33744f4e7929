package extsort

import (
	"errors"
	"fmt"

	"github.com/tamirms/extsort/blockio"
	exterrors "github.com/tamirms/extsort/errors"
	"github.com/tamirms/extsort/internal/arena"
	"github.com/tamirms/extsort/internal/partition"
)

// maxRecursionDepth bounds quicksort recursion. Bounds-aware pivots make
// every split strictly shrink its input, so reaching it indicates a bug.
const maxRecursionDepth = 128

// part is one partition file and the bounds of its elements.
type part struct {
	path   string
	bounds partition.Bounds
}

func (s *sorter) quickSort(input, output string) error {
	if s.n <= s.memElems {
		s.stats.InMemory = true
		s.log.Debug("input fits in memory", "elements", s.n)
		return s.sortInMemory(input, output, s.n)
	}

	parts, err := s.partition(input, 1, nil)
	if err != nil {
		return err
	}
	for _, p := range parts {
		if err := s.sortPartition(p, 1); err != nil {
			return err
		}
	}
	return s.concatenate(parts, output, s.n)
}

// sortPartition sorts the partition file p in place. depth is the level at
// which p was created.
func (s *sorter) sortPartition(p part, depth int) error {
	if depth > maxRecursionDepth {
		return fmt.Errorf("%w: depth %d", exterrors.ErrRecursionLimit, depth)
	}
	s.stats.MaxDepth = max(s.stats.MaxDepth, depth)

	switch {
	case p.bounds.Constant():
		return nil
	case p.bounds.Count <= s.memElems:
		return s.sortInMemory(p.path, p.path, p.bounds.Count)
	}

	children, err := s.partition(p.path, depth+1, &p.bounds)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := s.sortPartition(c, depth+1); err != nil {
			return err
		}
	}
	return s.concatenate(children, p.path, p.bounds.Count)
}

// partition splits the file at path into at most arity partition files
// created at the given depth. bounds describes the file when known. Empty
// partitions are released before returning.
func (s *sorter) partition(path string, depth int, bounds *partition.Bounds) ([]part, error) {
	pivots, err := s.selectPivots(path, bounds)
	if err != nil {
		return nil, err
	}

	r, err := blockio.OpenReader(path, s.counter, s.blockSize, s.bufBytes)
	if err != nil {
		return nil, fmt.Errorf("open partition input: %w", err)
	}
	defer r.Close()

	writers := make([]*blockio.Writer, 0, len(pivots)+1)
	sinks := make([]partition.Sink, 0, len(pivots)+1)
	abortAll := func() error {
		var errs []error
		for _, w := range writers {
			errs = append(errs, w.Abort())
		}
		return errors.Join(errs...)
	}
	for i := range len(pivots) + 1 {
		w, err := s.arena.Create(arena.Key{Kind: arena.Partition, Depth: depth, Index: i}, s.counter, s.blockSize, s.bufBytes)
		if err != nil {
			return nil, errors.Join(err, abortAll())
		}
		writers = append(writers, w)
		sinks = append(sinks, w)
	}

	childBounds, err := partition.Split(r, pivots, sinks)
	if err != nil {
		return nil, errors.Join(err, abortAll())
	}
	for _, w := range writers {
		if cerr := w.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	if err != nil {
		return nil, err
	}
	s.stats.Partitions += len(writers)

	parent := r.Len()
	parts := make([]part, 0, len(writers))
	for i, w := range writers {
		b := childBounds[i]
		if b.Count == parent {
			s.stats.DegenerateSplits++
			s.log.Warn("degenerate split",
				"depth", depth,
				"elements", parent,
				"pivots", len(pivots),
			)
		}
		if b.Count == 0 {
			if err := s.arena.Release(w.Path()); err != nil {
				return nil, err
			}
			continue
		}
		parts = append(parts, part{path: w.Path(), bounds: b})
	}
	s.log.Debug("partitioned",
		"depth", depth,
		"elements", parent,
		"pivots", len(pivots),
		"partitions", len(parts),
	)
	return parts, nil
}

// selectPivots samples the file at path and picks up to arity-1 pivots.
func (s *sorter) selectPivots(path string, bounds *partition.Bounds) ([]int64, error) {
	var (
		sample []int64
		err    error
	)
	switch s.cfg.sampling {
	case SampleReservoir:
		var r *blockio.Reader
		r, err = blockio.OpenReader(path, s.counter, s.blockSize, s.bufBytes)
		if err != nil {
			return nil, fmt.Errorf("open partition input: %w", err)
		}
		capacity := s.memElems - int64(s.bufBytes/blockio.ElementSize)
		sample, err = partition.SampleReservoir(r, int(max(capacity, 1)), s.rng)
		err = errors.Join(err, r.Close())
	default:
		var r *blockio.Reader
		r, err = blockio.OpenReader(path, s.counter, s.blockSize, s.ioBlock)
		if err != nil {
			return nil, fmt.Errorf("open partition input: %w", err)
		}
		sample, err = partition.SampleBlock(r, s.rng)
		err = errors.Join(err, r.Close())
	}
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", path, err)
	}
	return partition.Select(sample, s.arity, bounds), nil
}

// concatenate writes the sorted partitions in order to dst, which may be
// the parent partition file, releasing each one as it is consumed.
func (s *sorter) concatenate(parts []part, dst string, n int64) error {
	w, err := blockio.CreateWriter(dst, s.counter, s.blockSize, s.bufBytes)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := w.Preallocate(n); err != nil {
		return errors.Join(err, w.Abort())
	}
	for _, p := range parts {
		r, err := blockio.OpenReader(p.path, s.counter, s.blockSize, s.bufBytes)
		if err != nil {
			return errors.Join(fmt.Errorf("open partition: %w", err), w.Abort())
		}
		_, err = blockio.Copy(w, r)
		if err = errors.Join(err, r.Close()); err != nil {
			return errors.Join(err, w.Abort())
		}
		if err := s.arena.Release(p.path); err != nil {
			return errors.Join(err, w.Abort())
		}
	}
	return w.Close()
}
