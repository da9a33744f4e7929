package extsort

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamirms/extsort/blockio"
	exterrors "github.com/tamirms/extsort/errors"
)

// Strategy selects how Tune explores the arity range.
type Strategy uint8

const (
	// Exhaustive measures every arity in the range. It finds the true
	// minimum whatever the shape of the cost curve.
	Exhaustive Strategy = iota

	// BinarySearch narrows the range by comparing neighbouring arities and
	// scans the last few. It assumes the cost is unimodal in the arity.
	BinarySearch

	// TernarySearch narrows the range by comparing the costs at its two
	// thirds and scans the last few. It assumes the cost is unimodal.
	TernarySearch
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case Exhaustive:
		return "exhaustive"
	case BinarySearch:
		return "binary"
	case TernarySearch:
		return "ternary"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a name accepted on the command line to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "exhaustive", "linear":
		return Exhaustive, nil
	case "binary":
		return BinarySearch, nil
	case "ternary":
		return TernarySearch, nil
	default:
		return 0, fmt.Errorf("%w: %q", exterrors.ErrUnknownStrategy, s)
	}
}

// ArityRange is an inclusive range of arities.
type ArityRange struct {
	Min int
	Max int
}

// Len returns the number of arities in the range.
func (r ArityRange) Len() int {
	return max(r.Max-r.Min+1, 0)
}

// DefaultArityRange returns [2, blockSize/8], the range the tuner searches
// when the caller has no better bound.
func DefaultArityRange(blockSize int) ArityRange {
	return ArityRange{Min: 2, Max: max(blockSize/blockio.ElementSize, 2)}
}

// Measurement is the averaged I/O cost of sorting the test file at one arity.
type Measurement struct {
	Arity   int
	Reads   float64
	Writes  float64
	Elapsed time.Duration
}

// Cost returns the average number of block operations.
func (m Measurement) Cost() float64 {
	return m.Reads + m.Writes
}

// TuneResult reports the arity with the lowest measured cost.
type TuneResult struct {
	Arity     int
	Cost      float64
	Strategy  Strategy
	Algorithm Algorithm

	// Requested is the range passed to Tune; Searched is the range after
	// clamping to the memory budget.
	Requested ArityRange
	Searched  ArityRange
	Clamped   bool

	// Measurements holds every evaluated arity in ascending order.
	Measurements []Measurement

	// Evaluations is the number of distinct arities measured.
	Evaluations int
}

// Tune finds the arity that minimises the block I/O of sorting testFile
// with memBytes of memory and blocks of blockSize bytes.
//
// Every measurement sorts testFile into a private scratch directory with a
// fresh counter, so measurements are independent and may run concurrently.
// An upper bound above MaxFeasibleArity(memBytes) is clamped.
func Tune(ctx context.Context, testFile string, blockSize int, memBytes int64, r ArityRange, opts ...TuneOption) (*TuneResult, error) {
	cfg := defaultTuneConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.workers = max(cfg.workers, 1)
	cfg.trials = max(cfg.trials, 1)

	if r.Min < 2 || r.Min > r.Max {
		return nil, fmt.Errorf("%w: [%d, %d]", exterrors.ErrInvalidArityRange, r.Min, r.Max)
	}
	if err := blockio.ValidateBlockSize(blockSize); err != nil {
		return nil, err
	}
	maxArity := MaxFeasibleArity(memBytes)
	if maxArity == 0 {
		return nil, fmt.Errorf("%w: %d bytes", exterrors.ErrMemoryBudgetTooSmall, memBytes)
	}
	if r.Min > maxArity {
		return nil, fmt.Errorf("%w: minimum %d, feasible maximum %d", exterrors.ErrArityInfeasible, r.Min, maxArity)
	}
	if _, err := blockio.Elements(testFile); err != nil {
		return nil, fmt.Errorf("open test file: %w", err)
	}

	res := &TuneResult{
		Strategy:  cfg.strategy,
		Algorithm: cfg.algorithm,
		Requested: r,
		Searched:  r,
	}
	if r.Max > maxArity {
		res.Searched.Max = maxArity
		res.Clamped = true
		cfg.logger.Warn("arity range exceeds memory budget, clamping",
			"requested_max", r.Max,
			"max", maxArity,
			"memory_budget", memBytes,
		)
	}

	t := &tuner{
		cfg:       cfg,
		testFile:  testFile,
		blockSize: blockSize,
		memBytes:  memBytes,
		memo:      make(map[int]Measurement),
	}

	var err error
	switch cfg.strategy {
	case Exhaustive:
		err = t.exhaustive(ctx, res.Searched)
	case BinarySearch:
		err = t.binary(ctx, res.Searched)
	case TernarySearch:
		err = t.ternary(ctx, res.Searched)
	default:
		err = fmt.Errorf("%w: %d", exterrors.ErrUnknownStrategy, cfg.strategy)
	}
	if err != nil {
		return nil, err
	}

	res.Measurements = t.measurements()
	res.Evaluations = len(res.Measurements)
	best := res.Measurements[0]
	for _, m := range res.Measurements[1:] {
		if m.Cost() < best.Cost() {
			best = m
		}
	}
	res.Arity = best.Arity
	res.Cost = best.Cost()
	cfg.logger.Info("tuning completed",
		"strategy", cfg.strategy.String(),
		"algorithm", cfg.algorithm.String(),
		"arity", res.Arity,
		"cost", res.Cost,
		"evaluations", res.Evaluations,
	)
	return res, nil
}

// tuner memoizes measurements for one Tune call.
type tuner struct {
	cfg       *tuneConfig
	testFile  string
	blockSize int
	memBytes  int64

	mu   sync.Mutex
	memo map[int]Measurement
}

func (t *tuner) exhaustive(ctx context.Context, r ArityRange) error {
	if t.cfg.workers == 1 {
		return t.scan(ctx, r.Min, r.Max)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.workers)
	for a := r.Min; a <= r.Max; a++ {
		g.Go(func() error {
			_, err := t.measure(gctx, a)
			return err
		})
	}
	return g.Wait()
}

// binary compares f(mid) with f(mid+1) and keeps the half that holds the
// minimum of a unimodal cost, then scans the last window.
func (t *tuner) binary(ctx context.Context, r ArityRange) error {
	lo, hi := r.Min, r.Max
	for hi-lo+1 > 4 {
		mid := lo + (hi-lo)/2
		a, err := t.measure(ctx, mid)
		if err != nil {
			return err
		}
		b, err := t.measure(ctx, mid+1)
		if err != nil {
			return err
		}
		if a.Cost() <= b.Cost() {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return t.scan(ctx, lo, hi)
}

// ternary compares the costs at the two thirds of the window, then scans
// the last window.
func (t *tuner) ternary(ctx context.Context, r ArityRange) error {
	lo, hi := r.Min, r.Max
	for hi-lo > 2 {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		a, err := t.measure(ctx, m1)
		if err != nil {
			return err
		}
		b, err := t.measure(ctx, m2)
		if err != nil {
			return err
		}
		if a.Cost() <= b.Cost() {
			hi = m2
		} else {
			lo = m1
		}
	}
	return t.scan(ctx, lo, hi)
}

func (t *tuner) scan(ctx context.Context, lo, hi int) error {
	for a := lo; a <= hi; a++ {
		if _, err := t.measure(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// measure returns the averaged cost of arity, sorting the test file only
// the first time each arity is requested.
func (t *tuner) measure(ctx context.Context, arity int) (Measurement, error) {
	t.mu.Lock()
	m, ok := t.memo[arity]
	t.mu.Unlock()
	if ok {
		return m, nil
	}

	m = Measurement{Arity: arity}
	for trial := range t.cfg.trials {
		if err := ctx.Err(); err != nil {
			return Measurement{}, err
		}
		stats, err := t.sortOnce(arity)
		if err != nil {
			return Measurement{}, fmt.Errorf("arity %d trial %d: %w", arity, trial, err)
		}
		m.Reads += float64(stats.Reads)
		m.Writes += float64(stats.Writes)
		m.Elapsed += stats.Elapsed
	}
	n := float64(t.cfg.trials)
	m.Reads /= n
	m.Writes /= n
	m.Elapsed /= time.Duration(t.cfg.trials)

	t.cfg.logger.Debug("arity measured",
		"arity", arity,
		"reads", m.Reads,
		"writes", m.Writes,
		"cost", m.Cost(),
	)

	t.mu.Lock()
	t.memo[arity] = m
	t.mu.Unlock()
	return m, nil
}

// sortOnce sorts the test file into a scratch directory of its own with a
// fresh counter.
func (t *tuner) sortOnce(arity int) (*Stats, error) {
	scratch, err := os.MkdirTemp(t.cfg.tempDir, "extsort-tune-*")
	if err != nil {
		return nil, fmt.Errorf("create tuning directory: %w", err)
	}

	var counter blockio.Counter
	counter.Reset()
	opts := append(slices.Clone(t.cfg.sortOpts),
		WithBlockSize(t.blockSize),
		WithTempDir(scratch),
		WithCounter(&counter),
		WithLogger(t.cfg.logger.With(slog.Int("arity", arity))),
	)
	output := filepath.Join(scratch, "sorted.bin")
	stats, err := Sort(t.cfg.algorithm, t.testFile, output, t.memBytes, arity, opts...)
	return stats, errors.Join(err, os.RemoveAll(scratch))
}

// measurements returns the memoized measurements in ascending arity order.
func (t *tuner) measurements() []Measurement {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Measurement, 0, len(t.memo))
	for _, m := range t.memo {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Measurement) int {
		return a.Arity - b.Arity
	})
	return out
}
