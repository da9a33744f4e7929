package extsort

import (
	"fmt"

	exterrors "github.com/tamirms/extsort/errors"
)

// Algorithm identifies an external sorting algorithm.
type Algorithm uint8

const (
	// AlgoMergeSort splits the input into memory-sized sorted runs and
	// merges them a runs at a time.
	AlgoMergeSort Algorithm = 0

	// AlgoQuickSort partitions the input around a-1 sampled pivots and
	// recurses into every partition that does not fit in memory.
	AlgoQuickSort Algorithm = 1
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case AlgoMergeSort:
		return "mergesort"
	case AlgoQuickSort:
		return "quicksort"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps a name accepted on the command line to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "mergesort", "merge":
		return AlgoMergeSort, nil
	case "quicksort", "quick":
		return AlgoQuickSort, nil
	default:
		return 0, fmt.Errorf("%w: %q", exterrors.ErrUnknownAlgorithm, s)
	}
}

// Sampling selects how quicksort draws the sample its pivots come from.
type Sampling uint8

const (
	// SampleBlock reads one block chosen uniformly at random. It costs a
	// single read but its quantile estimates are biased when the input is
	// not uniformly shuffled.
	SampleBlock Sampling = 0

	// SampleReservoir draws a uniform reservoir sample over the whole
	// input, at the cost of one extra read pass per partitioning step.
	SampleReservoir Sampling = 1
)

// String returns the sampling strategy name.
func (s Sampling) String() string {
	switch s {
	case SampleBlock:
		return "block"
	case SampleReservoir:
		return "reservoir"
	default:
		return "unknown"
	}
}

// ParseSampling maps a name accepted on the command line to a Sampling.
func ParseSampling(s string) (Sampling, error) {
	switch s {
	case "block":
		return SampleBlock, nil
	case "reservoir":
		return SampleReservoir, nil
	default:
		return 0, fmt.Errorf("%w: %q", exterrors.ErrUnknownSampling, s)
	}
}
