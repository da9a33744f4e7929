// Bench compares external mergesort and external quicksort on inputs of
// growing size, recording block I/O, wall time and peak memory per run.
//
// Usage:
//
//	go run ./cmd/bench -mem 52428800 -arity 64 -sizes 4,8,16,32,60 -reps 5
//	go run ./cmd/bench -dist blocks -csv results.csv
//
// Flags:
//
//	-mem       Memory budget M in bytes (default: 50 MiB)
//	-block     Block size in bytes (default: 4096)
//	-arity     Arity for both algorithms (default: 64)
//	-sizes     Input sizes as multiples of M (default: 4,8,16,32,60)
//	-reps      Repetitions per size (default: 5)
//	-dist      Input distribution (default: uniform)
//	-csv       Append one row per sort to this file
//	-verify    Check every output (default: true)
//	-cold      Drop the input from the page cache before each sort (Linux)
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/tamirms/extsort"
	"github.com/tamirms/extsort/blockio"
	"github.com/tamirms/extsort/dataset"
	"github.com/tamirms/extsort/verify"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// peakSampler tracks the peak live heap while a sort runs. runtime/metrics
// avoids the stop-the-world pause of runtime.ReadMemStats.
type peakSampler struct {
	peak atomic.Uint64
	done chan struct{}
}

func startSampler() *peakSampler {
	p := &peakSampler{done: make(chan struct{})}
	go func() {
		samples := []metrics.Sample{
			{Name: "/memory/classes/heap/objects:bytes"},
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				heapBytes := samples[0].Value.Uint64()
				for {
					old := p.peak.Load()
					if heapBytes <= old || p.peak.CompareAndSwap(old, heapBytes) {
						break
					}
				}
			}
		}
	}()
	return p
}

func (p *peakSampler) stop() uint64 {
	close(p.done)
	return p.peak.Load()
}

type result struct {
	algo     extsort.Algorithm
	k        int
	rep      int
	stats    *extsort.Stats
	peakHeap uint64
}

func main() {
	memFlag := flag.Int64("mem", 50<<20, "memory budget in bytes")
	blockFlag := flag.Int("block", blockio.DefaultBlockSize, "block size in bytes")
	arityFlag := flag.Int("arity", 64, "arity for both algorithms")
	sizesFlag := flag.String("sizes", "4,8,16,32,60", "input sizes as multiples of the memory budget")
	repsFlag := flag.Int("reps", 5, "repetitions per size")
	distFlag := flag.String("dist", "uniform", "input distribution")
	samplingFlag := flag.String("sampling", "block", "quicksort pivot sampling: block or reservoir")
	dirFlag := flag.String("dir", "", "working directory (default: os.TempDir())")
	csvFlag := flag.String("csv", "", "append one row per sort to this CSV file")
	verifyFlag := flag.Bool("verify", true, "check every output")
	coldFlag := flag.Bool("cold", false, "drop the input from the page cache before each sort")
	seedFlag := flag.Uint64("seed", 1, "dataset and pivot seed")
	verbose := flag.Bool("v", false, "log sort progress to stderr")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	flag.Parse()

	sizes, err := parseSizes(*sizesFlag)
	if err != nil {
		fmt.Printf("Invalid -sizes: %v\n", err)
		os.Exit(2)
	}
	dist, err := dataset.ParseDistribution(*distFlag)
	if err != nil {
		fmt.Printf("Invalid -dist: %v\n", err)
		os.Exit(2)
	}
	sampling, err := extsort.ParseSampling(*samplingFlag)
	if err != nil {
		fmt.Printf("Invalid -sampling: %v\n", err)
		os.Exit(2)
	}

	workDir, err := os.MkdirTemp(*dirFlag, "extsort-bench-")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	var csvOut *csv.Writer
	if *csvFlag != "" {
		f, err := os.OpenFile(*csvFlag, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Printf("Failed to open CSV: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		csvOut = csv.NewWriter(f)
		defer csvOut.Flush()
		if st, _ := f.Stat(); st != nil && st.Size() == 0 {
			_ = csvOut.Write([]string{"algorithm", "k", "elements", "rep", "arity", "reads", "writes", "ios", "seconds", "peak_heap_bytes", "max_rss_bytes"})
		}
	}

	logger := slog.New(slog.DiscardHandler)
	if *verbose {
		logger = extsort.NewTextLogger(slog.LevelDebug)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
		defer pprof.StopCPUProfile()
	}

	memElems := *memFlag / blockio.ElementSize
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Memory:       %d bytes (%d elements)\n", *memFlag, memElems)
	fmt.Printf("  Block:        %d bytes\n", *blockFlag)
	fmt.Printf("  Arity:        %d\n", *arityFlag)
	fmt.Printf("  Sizes:        %v x M\n", sizes)
	fmt.Printf("  Distribution: %s\n", dist)
	fmt.Printf("  Work dir:     %s\n", workDir)
	fmt.Println()

	var results []result
	for _, k := range sizes {
		n := int64(k) * memElems
		for rep := range *repsFlag {
			input := filepath.Join(workDir, "input.bin")
			seed := *seedFlag + uint64(k)*1000 + uint64(rep)
			if err := dataset.Generate(input, n, dist, seed, dataset.WithBlockSize(*blockFlag)); err != nil {
				fmt.Printf("Generate failed: %v\n", err)
				return
			}
			for _, algo := range []extsort.Algorithm{extsort.AlgoMergeSort, extsort.AlgoQuickSort} {
				if *coldFlag {
					if err := dropCache(input); err != nil {
						fmt.Printf("Drop cache failed: %v\n", err)
					}
				}
				output := filepath.Join(workDir, "output.bin")
				runtime.GC()
				sampler := startSampler()
				stats, err := extsort.Sort(algo, input, output, *memFlag, *arityFlag,
					extsort.WithBlockSize(*blockFlag),
					extsort.WithTempDir(workDir),
					extsort.WithSeed(seed),
					extsort.WithSampling(sampling),
					extsort.WithLogger(logger),
				)
				peak := sampler.stop()
				if err != nil {
					fmt.Printf("%s k=%d rep=%d failed: %v\n", algo, k, rep, err)
					return
				}
				if *verifyFlag {
					if err := verify.Check(input, output); err != nil {
						fmt.Printf("%s k=%d rep=%d produced bad output: %v\n", algo, k, rep, err)
						return
					}
				}
				_ = os.Remove(output)

				r := result{algo: algo, k: k, rep: rep, stats: stats, peakHeap: peak}
				results = append(results, r)
				fmt.Printf("%-9s k=%-3d rep=%d  %12d I/Os  %8.2fs\n", algo, k, rep, stats.IOs(), stats.Elapsed.Seconds())
				if csvOut != nil {
					writeRow(csvOut, r)
				}
			}
		}
	}
	printSummary(os.Stdout, sizes, results)
}

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for f := range strings.SplitSeq(s, ",") {
		k, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		if k <= 0 {
			return nil, fmt.Errorf("size multiple must be positive, got %d", k)
		}
		sizes = append(sizes, k)
	}
	return sizes, nil
}

func writeRow(w *csv.Writer, r result) {
	_ = w.Write([]string{
		r.algo.String(),
		strconv.Itoa(r.k),
		strconv.FormatInt(r.stats.Elements, 10),
		strconv.Itoa(r.rep),
		strconv.Itoa(r.stats.Arity),
		strconv.FormatUint(r.stats.Reads, 10),
		strconv.FormatUint(r.stats.Writes, 10),
		strconv.FormatUint(r.stats.IOs(), 10),
		strconv.FormatFloat(r.stats.Elapsed.Seconds(), 'f', 4, 64),
		strconv.FormatUint(r.peakHeap, 10),
		strconv.FormatUint(getMaxRSS(), 10),
	})
	w.Flush()
}

func printSummary(out io.Writer, sizes []int, results []result) {
	type agg struct {
		ios     float64
		seconds float64
		n       int
	}
	sums := make(map[extsort.Algorithm]map[int]*agg)
	for _, r := range results {
		if sums[r.algo] == nil {
			sums[r.algo] = make(map[int]*agg)
		}
		a := sums[r.algo][r.k]
		if a == nil {
			a = &agg{}
			sums[r.algo][r.k] = a
		}
		a.ios += float64(r.stats.IOs())
		a.seconds += r.stats.Elapsed.Seconds()
		a.n++
	}

	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "╔══════╦════════════════╦══════════╦════════════════╦══════════╗\n")
	fmt.Fprintf(out, "║  k   ║ merge I/Os     ║ merge s  ║ quick I/Os     ║ quick s  ║\n")
	fmt.Fprintf(out, "╠══════╬════════════════╬══════════╬════════════════╬══════════╣\n")
	for _, k := range sizes {
		m, q := sums[extsort.AlgoMergeSort][k], sums[extsort.AlgoQuickSort][k]
		if m == nil || q == nil {
			continue
		}
		fmt.Fprintf(out, "║ %4d ║ %14.0f ║ %8.2f ║ %14.0f ║ %8.2f ║\n", k,
			m.ios/float64(m.n), m.seconds/float64(m.n),
			q.ios/float64(q.n), q.seconds/float64(q.n))
	}
	fmt.Fprintf(out, "╚══════╩════════════════╩══════════╩════════════════╩══════════╝\n")
	fmt.Fprintf(out, "Peak RSS: %.1f MB\n", float64(getMaxRSS())/1_000_000)
}
