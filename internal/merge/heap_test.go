package merge

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeadHeapOrdering(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	h := newHeadHeap(0)
	var want []head
	for i := range 500 {
		v := rng.Int64N(50)
		h.push(v, i%7)
		want = append(want, head{value: v, src: int32(i % 7)})
	}
	slices.SortFunc(want, func(a, b head) int {
		if a.value != b.value {
			if a.value < b.value {
				return -1
			}
			return 1
		}
		return int(a.src - b.src)
	})

	var got []head
	for h.len() > 0 {
		got = append(got, h.pop())
	}
	require.Equal(t, want, got)
}

func TestHeadHeapTieBreak(t *testing.T) {
	h := newHeadHeap(4)
	h.push(5, 3)
	h.push(5, 1)
	h.push(5, 2)
	h.push(5, 0)
	for want := range int32(4) {
		require.Equal(t, want, h.pop().src)
	}
}

func TestHeadHeapReplaceTop(t *testing.T) {
	h := newHeadHeap(3)
	h.push(1, 0)
	h.push(4, 1)
	h.push(6, 2)

	require.Equal(t, head{1, 0}, h.top())
	h.replaceTop(5)
	require.Equal(t, head{4, 1}, h.top())
	h.replaceTop(5)
	// 5 from source 0 and 5 from source 1: lower source first.
	require.Equal(t, head{5, 0}, h.pop())
	require.Equal(t, head{5, 1}, h.pop())
	require.Equal(t, head{6, 2}, h.pop())
	require.Equal(t, 0, h.len())
}
