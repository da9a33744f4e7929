package extsort

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/tamirms/extsort/blockio"
	exterrors "github.com/tamirms/extsort/errors"
	"github.com/tamirms/extsort/internal/arena"
)

// minMemoryElements is the smallest budget that holds two input buffers
// and one output buffer of a single element each.
const minMemoryElements = 3

// MaxFeasibleArity returns the largest arity whose a input buffers plus one
// output buffer fit in memBytes, or 0 if the budget is below the minimum.
func MaxFeasibleArity(memBytes int64) int {
	elems := memBytes / blockio.ElementSize
	if elems < minMemoryElements {
		return 0
	}
	return int(min(elems-1, int64(maxInt)))
}

const maxInt = int(^uint(0) >> 1)

// MergeSort sorts the elements of input into output with external k-way
// mergesort, using at most memBytes of buffer space and merging arity runs
// per batch.
func MergeSort(input, output string, memBytes int64, arity int, opts ...Option) (*Stats, error) {
	return Sort(AlgoMergeSort, input, output, memBytes, arity, opts...)
}

// QuickSort sorts the elements of input into output with external
// quicksort, using at most memBytes of buffer space and splitting into up
// to arity partitions per level.
func QuickSort(input, output string, memBytes int64, arity int, opts ...Option) (*Stats, error) {
	return Sort(AlgoQuickSort, input, output, memBytes, arity, opts...)
}

// Sort sorts the elements of input into output with the given algorithm.
//
// The input file is never modified. All temporary files live in a scratch
// directory created under the configured temp dir and are removed before
// Sort returns, whether it succeeds or not. An arity larger than the
// memory budget allows is clamped; Stats reports the clamp.
func Sort(algo Algorithm, input, output string, memBytes int64, arity int, opts ...Option) (*Stats, error) {
	cfg := defaultSortConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	s, err := newSorter(algo, input, output, memBytes, arity, cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	before := s.counter.Snapshot()

	switch algo {
	case AlgoMergeSort:
		err = s.mergeSort(input, output)
	case AlgoQuickSort:
		err = s.quickSort(input, output)
	}

	s.stats.TempFiles = s.arena.Created()
	if cerr := s.arena.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		if rerr := os.Remove(output); rerr != nil && !os.IsNotExist(rerr) {
			err = errors.Join(err, rerr)
		}
		s.log.Error("sort failed", "algorithm", algo, "input", input, "error", err)
		return nil, err
	}

	io := s.counter.Snapshot().Sub(before)
	s.stats.Reads = io.Reads
	s.stats.Writes = io.Writes
	s.stats.Elapsed = time.Since(start)
	s.log.Info("sort completed",
		"algorithm", algo,
		"elements", s.stats.Elements,
		"arity", s.stats.Arity,
		"reads", s.stats.Reads,
		"writes", s.stats.Writes,
		"temp_files", s.stats.TempFiles,
		"elapsed", s.stats.Elapsed,
	)
	return s.stats, nil
}

// sorter holds the state of one sort invocation.
type sorter struct {
	cfg     *sortConfig
	counter *blockio.Counter
	arena   *arena.Arena
	log     *slog.Logger
	rng     *rand.Rand
	stats   *Stats

	n         int64 // input elements
	memElems  int64 // memory budget in elements
	arity     int
	blockSize int
	ioBlock   int // block transfer unit for single-buffer streams: min(B, M)
	bufBytes  int // per-stream buffer when arity+1 streams share the budget
}

func newSorter(algo Algorithm, input, output string, memBytes int64, arity int, cfg *sortConfig) (*sorter, error) {
	if algo != AlgoMergeSort && algo != AlgoQuickSort {
		return nil, fmt.Errorf("%w: %d", exterrors.ErrUnknownAlgorithm, algo)
	}
	if err := blockio.ValidateBlockSize(cfg.blockSize); err != nil {
		return nil, err
	}
	maxArity := MaxFeasibleArity(memBytes)
	if maxArity == 0 {
		return nil, fmt.Errorf("%w: %d bytes", exterrors.ErrMemoryBudgetTooSmall, memBytes)
	}
	if arity < 2 {
		return nil, fmt.Errorf("%w: got %d", exterrors.ErrInvalidArity, arity)
	}
	if err := checkDistinct(input, output); err != nil {
		return nil, err
	}
	n, err := blockio.Elements(input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	counter := cfg.counter
	if counter == nil {
		counter = new(blockio.Counter)
	}
	seed := cfg.seed
	if !cfg.seeded {
		seed = rand.Uint64()
	}

	s := &sorter{
		cfg:       cfg,
		counter:   counter,
		arena:     arena.New(cfg.tempDir),
		log:       cfg.logger.With("algorithm", algo.String()),
		rng:       rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		n:         n,
		memElems:  memBytes / blockio.ElementSize,
		arity:     arity,
		blockSize: cfg.blockSize,
		stats: &Stats{
			Algorithm:      algo,
			Elements:       n,
			MemoryBudget:   memBytes,
			BlockSize:      cfg.blockSize,
			RequestedArity: arity,
			Arity:          arity,
		},
	}
	if arity > maxArity {
		s.arity = maxArity
		s.stats.Arity = maxArity
		s.stats.ArityClamped = true
		s.log.Warn("arity exceeds memory budget, clamping",
			"requested", arity,
			"arity", maxArity,
			"memory_budget", memBytes,
		)
	}
	s.ioBlock = int(min(int64(s.blockSize), s.memElems*blockio.ElementSize))
	s.bufBytes = int(s.memElems/int64(s.arity+1)) * blockio.ElementSize
	return s, nil
}

// checkDistinct rejects sorting a file onto itself, which would destroy
// the input.
func checkDistinct(input, output string) error {
	in, err1 := filepath.Abs(input)
	out, err2 := filepath.Abs(output)
	if err1 == nil && err2 == nil && in == out {
		return fmt.Errorf("%w: %s", exterrors.ErrSamePath, input)
	}
	si, err1 := os.Stat(input)
	so, err2 := os.Stat(output)
	if err1 == nil && err2 == nil && os.SameFile(si, so) {
		return fmt.Errorf("%w: %s and %s", exterrors.ErrSamePath, input, output)
	}
	return nil
}
