package partition

import (
	"slices"
)

// Bounds summarises the elements routed to one partition.
type Bounds struct {
	Count int64
	Min   int64
	Max   int64
}

// Constant reports whether every element of a non-empty partition is equal.
func (b Bounds) Constant() bool {
	return b.Count > 0 && b.Min == b.Max
}

func (b *Bounds) add(v int64) {
	if b.Count == 0 {
		b.Min, b.Max = v, v
	} else if v < b.Min {
		b.Min = v
	} else if v > b.Max {
		b.Max = v
	}
	b.Count++
}

// Select sorts sample in place and returns at most parts-1 strictly
// increasing pivots taken at evenly spaced ranks.
//
// When bounds is non-nil it describes the data being partitioned: pivots
// outside [Min, Max) are dropped, and if none remain while Min < Max the
// midpoint of the range is used. Any pivot in [Min, Max) sends Min and Max
// to different partitions, so every partition is strictly smaller than
// the input.
func Select(sample []int64, parts int, bounds *Bounds) []int64 {
	slices.Sort(sample)
	pivots := make([]int64, 0, max(parts-1, 0))
	if n := int64(len(sample)); n > 0 {
		for i := 1; i < parts; i++ {
			v := sample[int64(i)*n/int64(parts)]
			if bounds != nil && (v < bounds.Min || v >= bounds.Max) {
				continue
			}
			if len(pivots) > 0 && pivots[len(pivots)-1] == v {
				continue
			}
			pivots = append(pivots, v)
		}
	}
	if len(pivots) == 0 && bounds != nil && bounds.Min < bounds.Max {
		pivots = append(pivots, midpoint(bounds.Min, bounds.Max))
	}
	return pivots
}

// midpoint returns lo + (hi-lo)/2 without overflow. Requires lo <= hi.
func midpoint(lo, hi int64) int64 {
	return int64(uint64(lo) + (uint64(hi)-uint64(lo))/2)
}

// Route returns the partition index of v: the position of the first pivot
// >= v, so a value equal to a pivot goes to the lower interval.
func Route(pivots []int64, v int64) int {
	i, _ := slices.BinarySearch(pivots, v)
	return i
}
