package solver

// orderHeap ranks the branching candidates by activity so that the hottest
// variable is always one peek away. It is a binary max-heap over the
// solver's activity slice (shared, not copied); pos records each variable's
// slot, -1 when absent, which makes membership tests O(1) and lets
// decrease-key start sifting from the right slot without a search.
type orderHeap struct {
	activity []float64
	elems    []Var
	pos      []int
}

// hotter is the heap order: higher activity wins.
func (h *orderHeap) hotter(v, w Var) bool {
	return h.activity[v] > h.activity[w]
}

func (h *orderHeap) swap(i, j int) {
	h.elems[i], h.elems[j] = h.elems[j], h.elems[i]
	h.pos[h.elems[i]] = i
	h.pos[h.elems[j]] = j
}

// siftUp moves the element in slot i towards the root while it beats its
// parent.
func (h *orderHeap) siftUp(i int) {
	for i > 0 {
		up := (i - 1) / 2
		if !h.hotter(h.elems[i], h.elems[up]) {
			break
		}
		h.swap(i, up)
		i = up
	}
}

// siftDown moves the element in slot i towards the leaves while one of its
// children beats it.
func (h *orderHeap) siftDown(i int) {
	for {
		child := 2*i + 1
		if child >= len(h.elems) {
			return
		}
		if r := child + 1; r < len(h.elems) && h.hotter(h.elems[r], h.elems[child]) {
			child = r
		}
		if !h.hotter(h.elems[child], h.elems[i]) {
			return
		}
		h.swap(i, child)
		i = child
	}
}

func (h *orderHeap) len() int    { return len(h.elems) }
func (h *orderHeap) empty() bool { return len(h.elems) == 0 }

func (h *orderHeap) contains(v Var) bool {
	return int(v) < len(h.pos) && h.pos[v] >= 0
}

// get returns the var in the given heap slot.
func (h *orderHeap) get(i int) Var {
	return h.elems[i]
}

// peek returns the var with the highest activity without extracting it.
func (h *orderHeap) peek() Var {
	return h.elems[0]
}

// decrease restores the order after v's activity grew.
func (h *orderHeap) decrease(v Var) {
	h.siftUp(h.pos[v])
}

func (h *orderHeap) grow(v Var) {
	for len(h.pos) <= int(v) {
		h.pos = append(h.pos, -1)
	}
}

func (h *orderHeap) insert(v Var) {
	h.grow(v)
	h.pos[v] = len(h.elems)
	h.elems = append(h.elems, v)
	h.siftUp(h.pos[v])
}

// removeMin extracts the extremum of the order, i.e the var with the
// highest activity.
func (h *orderHeap) removeMin() Var {
	top := h.elems[0]
	last := len(h.elems) - 1
	h.swap(0, last)
	h.pos[top] = -1
	h.elems = h.elems[:last]
	if last > 0 {
		h.siftDown(0)
	}
	return top
}

// build resets the heap to exactly the given vars.
func (h *orderHeap) build(vs []Var) {
	for _, v := range h.elems {
		h.pos[v] = -1
	}
	h.elems = h.elems[:0]
	for _, v := range vs {
		h.grow(v)
		h.pos[v] = len(h.elems)
		h.elems = append(h.elems, v)
	}
	for i := len(h.elems)/2 - 1; i >= 0; i-- {
		h.siftDown(i)
	}
}
