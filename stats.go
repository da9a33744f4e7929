package extsort

import "time"

// Stats describes one completed sort.
type Stats struct {
	Algorithm    Algorithm
	Elements     int64
	MemoryBudget int64
	BlockSize    int

	// RequestedArity is the arity passed by the caller; Arity is the one
	// used after clamping to the memory budget.
	RequestedArity int
	Arity          int
	ArityClamped   bool

	// InMemory is set when the input fit in the memory budget and was
	// sorted in a single pass without temp files.
	InMemory bool

	// Block operations performed by this sort.
	Reads  uint64
	Writes uint64

	// Mergesort: initial runs and merge passes.
	Runs   int
	Passes int

	// Quicksort: partition files created, deepest recursion level, and
	// splits in which one partition received every element.
	Partitions       int
	MaxDepth         int
	DegenerateSplits int

	// TempFiles counts run and partition files created.
	TempFiles int

	Elapsed time.Duration
}

// IOs returns the total number of block operations.
func (s *Stats) IOs() uint64 {
	return s.Reads + s.Writes
}
