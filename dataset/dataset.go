// Package dataset writes element files for tests, tuning and benchmarks.
package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/spaolacci/murmur3"

	"github.com/tamirms/extsort/blockio"
	exterrors "github.com/tamirms/extsort/errors"
)

// UniformMax is the upper bound of Uniform and Blocks values.
const UniformMax = 1_000_000_000_000

// Distribution is the shape of a generated dataset.
type Distribution uint8

const (
	// Uniform draws every element independently from [0, UniformMax].
	Uniform Distribution = iota

	// Blocks fills each block with a shuffled run of consecutive integers
	// starting at a random offset. Values are locally dense and globally
	// spread, which defeats single-block pivot sampling.
	Blocks

	// Sorted is 0, 1, ..., n-1.
	Sorted

	// Reversed is n-1, n-2, ..., 0.
	Reversed

	// Constant repeats one value.
	Constant

	// Hashed is murmur3 of the element index, spread over all of int64.
	Hashed
)

var names = [...]string{
	Uniform:  "uniform",
	Blocks:   "blocks",
	Sorted:   "sorted",
	Reversed: "reversed",
	Constant: "constant",
	Hashed:   "hashed",
}

// Distributions lists every distribution.
func Distributions() []Distribution {
	return []Distribution{Uniform, Blocks, Sorted, Reversed, Constant, Hashed}
}

func (d Distribution) String() string {
	if int(d) < len(names) {
		return names[d]
	}
	return "unknown"
}

// ParseDistribution maps a name to a Distribution.
func ParseDistribution(s string) (Distribution, error) {
	for i, name := range names {
		if name == s {
			return Distribution(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", exterrors.ErrUnknownDistribution, s)
}

// Option configures Generate.
type Option func(*config)

type config struct {
	blockSize int
	counter   *blockio.Counter
	constant  int64
}

// WithBlockSize sets the write block size and the block length of the
// Blocks distribution. Default is blockio.DefaultBlockSize.
func WithBlockSize(size int) Option {
	return func(c *config) {
		c.blockSize = size
	}
}

// WithCounter records the writes of Generate on c.
func WithCounter(c *blockio.Counter) Option {
	return func(cfg *config) {
		cfg.counter = c
	}
}

// WithConstant sets the value of the Constant distribution. Default is 7.
func WithConstant(v int64) Option {
	return func(c *config) {
		c.constant = v
	}
}

// Generate writes n elements of distribution dist to path. The same seed
// always produces the same file.
func Generate(path string, n int64, dist Distribution, seed uint64, opts ...Option) error {
	cfg := &config{
		blockSize: blockio.DefaultBlockSize,
		constant:  7,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if int(dist) >= len(names) {
		return fmt.Errorf("%w: %d", exterrors.ErrUnknownDistribution, dist)
	}
	if err := blockio.ValidateBlockSize(cfg.blockSize); err != nil {
		return err
	}

	w, err := blockio.CreateWriter(path, cfg.counter, cfg.blockSize, cfg.blockSize)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := w.Preallocate(n); err != nil {
		return errors.Join(err, w.Abort())
	}
	g := newGenerator(dist, n, seed, cfg)
	chunk := make([]int64, cfg.blockSize/blockio.ElementSize)
	for written := int64(0); written < n; {
		k := int(min(int64(len(chunk)), n-written))
		g.fill(chunk[:k], written)
		if err := w.AppendSlice(chunk[:k]); err != nil {
			return errors.Join(err, w.Abort())
		}
		written += int64(k)
	}
	return w.Close()
}

// Values returns the n elements Generate would write.
func Values(n int64, dist Distribution, seed uint64, opts ...Option) []int64 {
	cfg := &config{
		blockSize: blockio.DefaultBlockSize,
		constant:  7,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	g := newGenerator(dist, n, seed, cfg)
	out := make([]int64, n)
	per := int64(cfg.blockSize / blockio.ElementSize)
	for off := int64(0); off < n; off += per {
		g.fill(out[off:min(off+per, n)], off)
	}
	return out
}

type generator struct {
	dist     Distribution
	n        int64
	rng      *rand.Rand
	seed     uint32
	constant int64
	key      [8]byte
}

func newGenerator(dist Distribution, n int64, seed uint64, cfg *config) *generator {
	return &generator{
		dist:     dist,
		n:        n,
		rng:      rand.New(rand.NewPCG(seed, seed^0xDA3E39CB94B95BDB)),
		seed:     uint32(seed),
		constant: cfg.constant,
	}
}

// fill writes the elements at positions [off, off+len(dst)) into dst. It
// is called once per block, in order.
func (g *generator) fill(dst []int64, off int64) {
	switch g.dist {
	case Uniform:
		for i := range dst {
			dst[i] = g.rng.Int64N(UniformMax + 1)
		}
	case Blocks:
		start := g.rng.Int64N(UniformMax - int64(len(dst)) + 1)
		for i := range dst {
			dst[i] = start + int64(i)
		}
		g.rng.Shuffle(len(dst), func(i, j int) {
			dst[i], dst[j] = dst[j], dst[i]
		})
	case Sorted:
		for i := range dst {
			dst[i] = off + int64(i)
		}
	case Reversed:
		for i := range dst {
			dst[i] = g.n - 1 - (off + int64(i))
		}
	case Constant:
		for i := range dst {
			dst[i] = g.constant
		}
	case Hashed:
		for i := range dst {
			binary.LittleEndian.PutUint64(g.key[:], uint64(off+int64(i)))
			dst[i] = int64(murmur3.Sum64WithSeed(g.key[:], g.seed))
		}
	}
}
