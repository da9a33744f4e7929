// Tune measures the block I/O of sorting a test file at every arity of a
// range, or at the arities visited by binary or ternary search, and
// reports the cheapest.
//
// Usage:
//
//	go run ./cmd/tune -in sample.bin -mem 52428800
//	go run ./cmd/tune -in sample.bin -strategy ternary -min 2 -max 512 -csv arity.csv
//	go run ./cmd/tune -gen 60 -workers 4
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/tamirms/extsort"
	"github.com/tamirms/extsort/blockio"
	"github.com/tamirms/extsort/dataset"
)

func main() {
	inFlag := flag.String("in", "", "test file; generated when empty")
	genFlag := flag.Int64("gen", 60, "size of a generated test file as a multiple of the memory budget")
	memFlag := flag.Int64("mem", 50<<20, "memory budget in bytes")
	blockFlag := flag.Int("block", blockio.DefaultBlockSize, "block size in bytes")
	minFlag := flag.Int("min", 2, "smallest arity")
	maxFlag := flag.Int("max", 0, "largest arity (default: block size / 8)")
	strategyFlag := flag.String("strategy", "exhaustive", "search strategy: exhaustive, binary or ternary")
	algoFlag := flag.String("algo", "mergesort", "algorithm to measure: mergesort or quicksort")
	workersFlag := flag.Int("workers", 1, "concurrent measurements (exhaustive only)")
	trialsFlag := flag.Int("trials", 1, "sorts averaged per arity")
	tmpFlag := flag.String("tmp", "", "parent directory for scratch files (default: os.TempDir())")
	csvFlag := flag.String("csv", "", "write measurements to this CSV file ('-' for stdout)")
	verbose := flag.Bool("v", false, "log measurements to stderr")
	flag.Parse()

	strategy, err := extsort.ParseStrategy(*strategyFlag)
	if err != nil {
		fail(err, 2)
	}
	algo, err := extsort.ParseAlgorithm(*algoFlag)
	if err != nil {
		fail(err, 2)
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := extsort.NewTextLogger(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	testFile := *inFlag
	if testFile == "" {
		dir, err := os.MkdirTemp(*tmpFlag, "extsort-tune-input-")
		if err != nil {
			fail(err, 1)
		}
		defer func() { _ = os.RemoveAll(dir) }()
		testFile = filepath.Join(dir, "sample.bin")
		n := *genFlag * (*memFlag / blockio.ElementSize)
		fmt.Fprintf(os.Stderr, "generating %d uniform elements...\n", n)
		if err := dataset.Generate(testFile, n, dataset.Uniform, 1, dataset.WithBlockSize(*blockFlag)); err != nil {
			fail(err, 1)
		}
	}

	r := extsort.DefaultArityRange(*blockFlag)
	r.Min = *minFlag
	if *maxFlag > 0 {
		r.Max = *maxFlag
	}

	res, err := extsort.Tune(ctx, testFile, *blockFlag, *memFlag, r,
		extsort.WithStrategy(strategy),
		extsort.WithTuneAlgorithm(algo),
		extsort.WithTuneWorkers(*workersFlag),
		extsort.WithTrials(*trialsFlag),
		extsort.WithTuneTempDir(*tmpFlag),
		extsort.WithTuneLogger(logger),
	)
	if err != nil {
		fail(err, 1)
	}

	if *csvFlag != "" {
		var out io.Writer = os.Stdout
		if *csvFlag != "-" {
			f, err := os.Create(*csvFlag)
			if err != nil {
				fail(err, 1)
			}
			defer func() { _ = f.Close() }()
			out = f
		}
		if err := writeCSV(out, res); err != nil {
			fail(err, 1)
		}
	}

	fmt.Printf("strategy:     %s\n", res.Strategy)
	fmt.Printf("algorithm:    %s\n", res.Algorithm)
	if res.Clamped {
		fmt.Printf("range:        [%d, %d] (requested max %d)\n", res.Searched.Min, res.Searched.Max, res.Requested.Max)
	} else {
		fmt.Printf("range:        [%d, %d]\n", res.Searched.Min, res.Searched.Max)
	}
	fmt.Printf("evaluations:  %d\n", res.Evaluations)
	fmt.Printf("best arity:   %d\n", res.Arity)
	fmt.Printf("cost:         %.0f I/Os\n", res.Cost)
}

func writeCSV(out io.Writer, res *extsort.TuneResult) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"arity", "reads", "writes", "cost", "seconds"}); err != nil {
		return err
	}
	for _, m := range res.Measurements {
		err := w.Write([]string{
			strconv.Itoa(m.Arity),
			strconv.FormatFloat(m.Reads, 'f', 1, 64),
			strconv.FormatFloat(m.Writes, 'f', 1, 64),
			strconv.FormatFloat(m.Cost(), 'f', 1, 64),
			strconv.FormatFloat(m.Elapsed.Seconds(), 'f', 4, 64),
		})
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
