package merge

// head is the current smallest unconsumed element of one source.
type head struct {
	value int64
	src   int32
}

// headHeap is a min-heap of source heads ordered by value.
// Equal values are ordered by source index, so merges are reproducible.
type headHeap struct {
	items []head
}

func newHeadHeap(capacity int) *headHeap {
	return &headHeap{items: make([]head, 0, capacity)}
}

func (h *headHeap) len() int {
	return len(h.items)
}

// push adds an element and maintains heap property. O(log n).
func (h *headHeap) push(value int64, src int) {
	h.items = append(h.items, head{value: value, src: int32(src)})
	h.up(len(h.items) - 1)
}

// top returns the minimum without removing it.
func (h *headHeap) top() head {
	return h.items[0]
}

// pop removes and returns the minimum. O(log n).
func (h *headHeap) pop() head {
	n := len(h.items) - 1
	h.swap(0, n)
	h.down(0, n)
	it := h.items[n]
	h.items = h.items[:n]
	return it
}

// replaceTop swaps the minimum's value for the next value from the same
// source and restores heap order with a single sift-down.
func (h *headHeap) replaceTop(value int64) {
	h.items[0].value = value
	h.down(0, len(h.items))
}

func (h *headHeap) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

func (h *headHeap) less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.value != b.value {
		return a.value < b.value
	}
	// Deterministic tie-break by source index
	return a.src < b.src
}

func (h *headHeap) up(j int) {
	for {
		i := (j - 1) / 2 // parent
		if i == j || !h.less(j, i) {
			break
		}
		h.swap(i, j)
		j = i
	}
}

func (h *headHeap) down(i, n int) {
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1 // left child
		if j2 := j1 + 1; j2 < n && h.less(j2, j1) {
			j = j2 // right child
		}
		if !h.less(j, i) {
			break
		}
		h.swap(i, j)
		i = j
	}
}
