// Package errors defines all exported error sentinels for the extsort library.
//
// This is the single source of truth for error values. Both the top-level
// extsort package and its subpackages import from here, ensuring errors.Is
// checks work across package boundaries.
package errors

import "errors"

// Configuration errors
var (
	ErrInvalidArity         = errors.New("extsort: arity must be at least 2")
	ErrMemoryBudgetTooSmall = errors.New("extsort: memory budget must hold at least 3 elements")
	ErrInvalidBlockSize     = errors.New("extsort: block size must be a positive multiple of 8 bytes")
	ErrUnknownAlgorithm     = errors.New("extsort: unknown sort algorithm")
	ErrUnknownDistribution  = errors.New("extsort: unknown dataset distribution")
	ErrUnknownSampling      = errors.New("extsort: unknown sampling strategy")
	ErrUnknownStrategy      = errors.New("extsort: unknown arity search strategy")
)

// Input errors
var (
	ErrMisalignedInput = errors.New("extsort: file size is not a multiple of the element size")
	ErrSamePath        = errors.New("extsort: input and output must be different files")
)

// Sort errors
var (
	ErrRecursionLimit = errors.New("extsort: quicksort recursion depth limit exceeded")
)

// Tuner errors
var (
	ErrInvalidArityRange = errors.New("extsort: invalid arity search range")
	ErrArityInfeasible   = errors.New("extsort: arity search range exceeds the memory budget")
)

// Verification errors
var (
	ErrNotSorted      = errors.New("extsort: output is not sorted")
	ErrNotPermutation = errors.New("extsort: output is not a permutation of the input")
)
