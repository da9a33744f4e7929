package partition

import (
	"fmt"
	"io"
)

// Source is a stream of elements.
type Source interface {
	Next() (int64, error)
}

// Sink receives the elements of one partition.
type Sink interface {
	Append(v int64) error
}

// Split streams src into len(pivots)+1 sinks by Route and returns the
// bounds of every partition. dsts must hold exactly len(pivots)+1 sinks.
func Split(src Source, pivots []int64, dsts []Sink) ([]Bounds, error) {
	if len(dsts) != len(pivots)+1 {
		return nil, fmt.Errorf("partition: %d sinks for %d pivots", len(dsts), len(pivots))
	}
	bounds := make([]Bounds, len(dsts))
	for {
		v, err := src.Next()
		if err == io.EOF {
			return bounds, nil
		}
		if err != nil {
			return bounds, err
		}
		i := Route(pivots, v)
		if err := dsts[i].Append(v); err != nil {
			return bounds, err
		}
		bounds[i].add(v)
	}
}
