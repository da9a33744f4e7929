// Gen writes a file of little-endian int64 values for sorting experiments.
//
// Usage:
//
//	go run ./cmd/gen -out input.bin -n 10000000 -dist uniform
//	go run ./cmd/gen -out blocks.bin -mem 52428800 -k 8 -dist blocks
//
// The element count is -n, or -k times the number of elements that fit in
// -mem bytes when -n is zero.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tamirms/extsort/blockio"
	"github.com/tamirms/extsort/dataset"
	"github.com/tamirms/extsort/verify"
)

func main() {
	outFlag := flag.String("out", "", "output file (required)")
	nFlag := flag.Int64("n", 0, "number of elements")
	memFlag := flag.Int64("mem", 50<<20, "memory budget in bytes, with -k")
	kFlag := flag.Int64("k", 4, "size as a multiple of the memory budget, when -n is 0")
	distFlag := flag.String("dist", "uniform", "distribution: "+distNames())
	blockFlag := flag.Int("block", blockio.DefaultBlockSize, "block size in bytes")
	seedFlag := flag.Uint64("seed", uint64(time.Now().UnixNano()), "generator seed")
	constFlag := flag.Int64("const", 7, "value of the constant distribution")
	flag.Parse()

	if *outFlag == "" {
		flag.Usage()
		os.Exit(2)
	}
	dist, err := dataset.ParseDistribution(*distFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gen: %v\n", err)
		os.Exit(2)
	}
	n := *nFlag
	if n == 0 {
		n = *kFlag * (*memFlag / blockio.ElementSize)
	}

	var c blockio.Counter
	start := time.Now()
	err = dataset.Generate(*outFlag, n, dist, *seedFlag,
		dataset.WithBlockSize(*blockFlag),
		dataset.WithCounter(&c),
		dataset.WithConstant(*constFlag),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gen: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	sum, err := verify.Summarize(*outFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d elements (%s, seed %d) to %s in %v\n", n, dist, *seedFlag, *outFlag, elapsed.Round(time.Millisecond))
	fmt.Printf("  block writes: %d\n", c.Writes())
	fmt.Printf("  range:        [%d, %d]\n", sum.Min, sum.Max)
	fmt.Printf("  multiset:     %s\n", sum.Multiset)
}

func distNames() string {
	var names []string
	for _, d := range dataset.Distributions() {
		names = append(names, d.String())
	}
	return strings.Join(names, ", ")
}
