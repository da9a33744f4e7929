// Extsort sorts a file of little-endian int64 values with external
// mergesort or external quicksort under a fixed memory budget, and reports
// the number of block reads and writes.
//
// Usage:
//
//	go run ./cmd/extsort -in input.bin -out sorted.bin -mem 52428800 -arity 64
//	go run ./cmd/extsort -algo quicksort -sampling reservoir -in input.bin -out sorted.bin
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tamirms/extsort"
	"github.com/tamirms/extsort/blockio"
	"github.com/tamirms/extsort/verify"
)

func main() {
	inFlag := flag.String("in", "", "input file (required)")
	outFlag := flag.String("out", "", "output file (required)")
	algoFlag := flag.String("algo", "mergesort", "algorithm: mergesort or quicksort")
	memFlag := flag.Int64("mem", 50<<20, "memory budget in bytes")
	arityFlag := flag.Int("arity", 64, "merge arity or number of partitions")
	blockFlag := flag.Int("block", blockio.DefaultBlockSize, "block size in bytes")
	tmpFlag := flag.String("tmp", "", "parent directory for temporary files (default: os.TempDir())")
	samplingFlag := flag.String("sampling", "block", "quicksort pivot sampling: block or reservoir")
	seedFlag := flag.Uint64("seed", 0, "quicksort pivot seed (0 = random)")
	verifyFlag := flag.Bool("verify", false, "check that the output is a sorted permutation of the input")
	logLevel := flag.String("log", "warn", "log level: debug, info, warn or error")
	jsonLogs := flag.Bool("json", false, "log in JSON")
	flag.Parse()

	if *inFlag == "" || *outFlag == "" {
		flag.Usage()
		os.Exit(2)
	}
	algo, err := extsort.ParseAlgorithm(*algoFlag)
	if err != nil {
		fail(err, 2)
	}
	sampling, err := extsort.ParseSampling(*samplingFlag)
	if err != nil {
		fail(err, 2)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fail(err, 2)
	}
	logger := extsort.NewTextLogger(level)
	if *jsonLogs {
		logger = extsort.NewJSONLogger(level)
	}

	opts := []extsort.Option{
		extsort.WithBlockSize(*blockFlag),
		extsort.WithTempDir(*tmpFlag),
		extsort.WithSampling(sampling),
		extsort.WithLogger(logger),
	}
	if *seedFlag != 0 {
		opts = append(opts, extsort.WithSeed(*seedFlag))
	}

	stats, err := extsort.Sort(algo, *inFlag, *outFlag, *memFlag, *arityFlag, opts...)
	if err != nil {
		fail(err, 1)
	}

	fmt.Printf("algorithm:    %s\n", stats.Algorithm)
	fmt.Printf("elements:     %d\n", stats.Elements)
	if stats.ArityClamped {
		fmt.Printf("arity:        %d (requested %d)\n", stats.Arity, stats.RequestedArity)
	} else {
		fmt.Printf("arity:        %d\n", stats.Arity)
	}
	fmt.Printf("reads:        %d\n", stats.Reads)
	fmt.Printf("writes:       %d\n", stats.Writes)
	fmt.Printf("total I/Os:   %d\n", stats.IOs())
	switch {
	case stats.InMemory:
		fmt.Printf("in memory:    yes\n")
	case algo == extsort.AlgoMergeSort:
		fmt.Printf("runs:         %d\n", stats.Runs)
		fmt.Printf("merge passes: %d\n", stats.Passes)
	default:
		fmt.Printf("partitions:   %d\n", stats.Partitions)
		fmt.Printf("max depth:    %d\n", stats.MaxDepth)
		fmt.Printf("degenerate:   %d\n", stats.DegenerateSplits)
	}
	fmt.Printf("elapsed:      %v\n", stats.Elapsed)

	if *verifyFlag {
		if err := verify.Check(*inFlag, *outFlag); err != nil {
			fail(err, 1)
		}
		fmt.Printf("verified:     sorted permutation\n")
	}
}

func fail(err error, code int) {
	fmt.Fprintf(os.Stderr, "extsort: %v\n", err)
	os.Exit(code)
}
