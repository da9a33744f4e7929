package extsort

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/tamirms/extsort/blockio"
	"github.com/tamirms/extsort/internal/arena"
	"github.com/tamirms/extsort/internal/merge"
)

func (s *sorter) mergeSort(input, output string) error {
	if s.n <= s.memElems {
		s.stats.InMemory = true
		s.log.Debug("input fits in memory", "elements", s.n)
		return s.sortInMemory(input, output, s.n)
	}

	runs, err := s.createRuns(input)
	if err != nil {
		return err
	}
	s.stats.Runs = len(runs)
	return s.mergeRuns(runs, output)
}

// createRuns splits input into sorted runs of at most memElems elements.
func (s *sorter) createRuns(input string) ([]string, error) {
	r, err := blockio.OpenReader(input, s.counter, s.blockSize, s.ioBlock)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer r.Close()

	chunk := make([]int64, min(s.memElems, s.n))
	var runs []string
	for i := 0; ; i++ {
		n, err := r.Fill(chunk)
		if err == io.EOF {
			return runs, nil
		}
		if err != nil {
			return nil, err
		}
		vals := chunk[:n]
		slices.Sort(vals)

		w, err := s.arena.Create(arena.Key{Kind: arena.Run, Depth: 0, Index: i}, s.counter, s.blockSize, s.ioBlock)
		if err != nil {
			return nil, err
		}
		if err := w.Preallocate(int64(n)); err != nil {
			return nil, errors.Join(err, w.Abort())
		}
		if err := w.AppendSlice(vals); err != nil {
			return nil, errors.Join(err, w.Abort())
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		runs = append(runs, w.Path())
		s.log.Debug("run written", "index", i, "elements", n)
	}
}

// mergeRuns merges runs arity at a time until one remains. The last pass
// writes straight to output.
func (s *sorter) mergeRuns(runs []string, output string) error {
	for pass := 0; len(runs) > 1; pass++ {
		batches := (len(runs) + s.arity - 1) / s.arity
		next := make([]string, 0, batches)
		for b := range batches {
			batch := runs[b*s.arity : min((b+1)*s.arity, len(runs))]
			if len(batch) == 1 {
				next = append(next, batch[0])
				continue
			}
			dst, err := s.mergeBatch(batch, pass, b, batches == 1, output)
			if err != nil {
				return err
			}
			next = append(next, dst)
		}
		s.stats.Passes++
		s.log.Debug("merge pass completed", "pass", pass, "runs_in", len(runs), "runs_out", len(next))
		runs = next
	}
	if len(runs) == 1 && runs[0] != output {
		return s.moveRun(runs[0], output)
	}
	return nil
}

// mergeBatch merges one batch of runs into a new run, or into output when
// final is set, and releases the batch.
func (s *sorter) mergeBatch(batch []string, pass, index int, final bool, output string) (string, error) {
	readers := make([]*blockio.Reader, 0, len(batch))
	closeAll := func() error {
		var errs []error
		for _, r := range readers {
			errs = append(errs, r.Close())
		}
		return errors.Join(errs...)
	}

	var total int64
	for _, path := range batch {
		r, err := blockio.OpenReader(path, s.counter, s.blockSize, s.bufBytes)
		if err != nil {
			return "", errors.Join(fmt.Errorf("open run: %w", err), closeAll())
		}
		readers = append(readers, r)
		total += r.Len()
	}

	var (
		w   *blockio.Writer
		err error
	)
	if final {
		w, err = blockio.CreateWriter(output, s.counter, s.blockSize, s.bufBytes)
		if err != nil {
			err = fmt.Errorf("create output: %w", err)
		}
	} else {
		w, err = s.arena.Create(arena.Key{Kind: arena.Run, Depth: pass + 1, Index: index}, s.counter, s.blockSize, s.bufBytes)
	}
	if err != nil {
		return "", errors.Join(err, closeAll())
	}
	if err := w.Preallocate(total); err != nil {
		return "", errors.Join(err, w.Abort(), closeAll())
	}

	if _, err := merge.Merge(w, merge.Readers(readers)); err != nil {
		return "", errors.Join(err, w.Abort(), closeAll())
	}
	if err := errors.Join(w.Close(), closeAll()); err != nil {
		return "", err
	}
	for _, path := range batch {
		if err := s.arena.Release(path); err != nil {
			return "", err
		}
	}
	s.log.Debug("batch merged", "pass", pass, "index", index, "runs", len(batch), "elements", total)
	return w.Path(), nil
}

// moveRun moves the last remaining run to output. A rename that fails,
// for example across devices, falls back to a counted copy.
func (s *sorter) moveRun(run, output string) error {
	if err := os.Rename(run, output); err == nil {
		s.arena.Detach(run)
		return nil
	}
	r, err := blockio.OpenReader(run, s.counter, s.blockSize, s.ioBlock)
	if err != nil {
		return fmt.Errorf("open run: %w", err)
	}
	defer r.Close()
	w, err := blockio.CreateWriter(output, s.counter, s.blockSize, s.ioBlock)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := blockio.Copy(w, r); err != nil {
		return errors.Join(err, w.Abort())
	}
	if err := w.Close(); err != nil {
		return err
	}
	return s.arena.Release(run)
}
