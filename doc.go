// Package extsort sorts files of little-endian int64 values that do not fit
// in memory, and counts the block transfers each sort performs.
//
// Two algorithms are provided. External mergesort splits the input into
// sorted runs of M/8 elements and merges them a at a time. External
// quicksort splits the input around a-1 sampled pivots into a partition
// files and recurses into every partition larger than M. In both, a is the
// arity and M the memory budget in bytes.
//
// # Basic Usage
//
// Sorting a file:
//
//	stats, err := extsort.MergeSort("in.bin", "out.bin", 64<<20, 16)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d reads, %d writes\n", stats.Reads, stats.Writes)
//
// Finding the arity with the fewest block transfers:
//
//	res, err := extsort.Tune(ctx, "sample.bin", 4096, 64<<20,
//	    extsort.DefaultArityRange(4096),
//	    extsort.WithStrategy(extsort.TernarySearch))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("best arity %d\n", res.Arity)
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Public API: sort.go (Sort, MergeSort, QuickSort), tune.go (Tune)
//   - Configuration: options.go (Option, TuneOption, With* functions)
//   - Algorithms: mergesort.go, quicksort.go, memsort.go (in-memory base case)
//   - Block I/O and counting: blockio/
//   - Merge heap: internal/merge/; pivots and partitioning: internal/partition/
//   - Temporary files: internal/arena/
//   - Tooling: dataset/ (input generators), verify/ (output checks)
package extsort
