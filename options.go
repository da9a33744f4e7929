package extsort

import (
	"log/slog"

	"github.com/tamirms/extsort/blockio"
)

// Option is a functional option for configuring a sort.
type Option func(*sortConfig)

// TuneOption is a functional option for configuring the arity tuner.
type TuneOption func(*tuneConfig)

type sortConfig struct {
	blockSize int
	tempDir   string // parent of the per-invocation scratch directory
	logger    *slog.Logger
	counter   *blockio.Counter // nil: the sort uses a private counter
	seed      uint64
	seeded    bool
	sampling  Sampling
}

func defaultSortConfig() *sortConfig {
	return &sortConfig{
		blockSize: blockio.DefaultBlockSize,
		logger:    discardLogger(),
		sampling:  SampleBlock,
	}
}

// WithBlockSize sets the block size in bytes. It must be a positive
// multiple of 8. Default is blockio.DefaultBlockSize.
func WithBlockSize(size int) Option {
	return func(c *sortConfig) {
		c.blockSize = size
	}
}

// WithTempDir sets the directory in which the scratch directory for run
// and partition files is created. Default is os.TempDir().
func WithTempDir(dir string) Option {
	return func(c *sortConfig) {
		c.tempDir = dir
	}
}

// WithLogger sets the structured logger. Default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(c *sortConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCounter records block transfers on c instead of a private counter.
// The sort does not reset c; callers reset it before a measured run.
func WithCounter(c *blockio.Counter) Option {
	return func(cfg *sortConfig) {
		cfg.counter = c
	}
}

// WithSeed fixes the seed of quicksort's pivot sampler. Without it every
// sort draws a fresh seed.
func WithSeed(seed uint64) Option {
	return func(c *sortConfig) {
		c.seed = seed
		c.seeded = true
	}
}

// WithSampling selects quicksort's sampling strategy. Default is SampleBlock.
func WithSampling(s Sampling) Option {
	return func(c *sortConfig) {
		c.sampling = s
	}
}

type tuneConfig struct {
	strategy  Strategy
	algorithm Algorithm
	workers   int
	trials    int
	tempDir   string
	logger    *slog.Logger
	sortOpts  []Option
}

func defaultTuneConfig() *tuneConfig {
	return &tuneConfig{
		strategy:  Exhaustive,
		algorithm: AlgoMergeSort,
		workers:   1,
		trials:    1,
		logger:    discardLogger(),
	}
}

// WithStrategy sets the search strategy. Default is Exhaustive.
func WithStrategy(s Strategy) TuneOption {
	return func(c *tuneConfig) {
		c.strategy = s
	}
}

// WithTuneAlgorithm selects the sort whose I/O is measured.
// Default is AlgoMergeSort.
func WithTuneAlgorithm(a Algorithm) TuneOption {
	return func(c *tuneConfig) {
		c.algorithm = a
	}
}

// WithTuneWorkers sets how many arities the exhaustive strategy measures
// concurrently. Each measurement owns its counter and scratch directory.
// The search strategies are sequential and ignore this option.
func WithTuneWorkers(n int) TuneOption {
	return func(c *tuneConfig) {
		c.workers = n
	}
}

// WithTrials sets how many sorts are averaged per arity. Useful for
// quicksort, whose cost varies with the sampled pivots.
func WithTrials(n int) TuneOption {
	return func(c *tuneConfig) {
		c.trials = n
	}
}

// WithTuneTempDir sets the directory for the measurement scratch directories.
func WithTuneTempDir(dir string) TuneOption {
	return func(c *tuneConfig) {
		c.tempDir = dir
	}
}

// WithTuneLogger sets the tuner's structured logger.
func WithTuneLogger(l *slog.Logger) TuneOption {
	return func(c *tuneConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSortOptions passes options through to every measured sort, e.g.
// WithSampling or WithSeed. Block size, temp dir, counter and logger are
// set by the tuner and override these.
func WithSortOptions(opts ...Option) TuneOption {
	return func(c *tuneConfig) {
		c.sortOpts = append(c.sortOpts, opts...)
	}
}
