package queue

import "unsafe"

// Entry is a heap slot holding an id and its key.
type Entry[K any] struct {
	ID  int32
	Key K
}

// IndexedMaxHeap is a binary max-heap over (id, key) pairs with an id -> slot
// map, so keys can be looked up in O(1) and adjusted in O(log n).
//
// Ids live in [0, Resize(n)). The root is slot 0 and the children of slot i
// are 2i+1 and 2i+2. Ties are never swapped, which keeps Build idempotent.
//
// IndexedMaxHeap is not safe for concurrent use.
type IndexedMaxHeap[K any] struct {
	greater   func(a, b K) bool
	items     []Entry[K]
	positions []int32 // id -> slot, -1 when absent
}

// NewIndexedMax creates an empty heap ordered by greater.
func NewIndexedMax[K any](greater func(a, b K) bool) *IndexedMaxHeap[K] {
	return &IndexedMaxHeap[K]{greater: greater}
}

// Resize clears the heap and admits ids in [0, n).
func (h *IndexedMaxHeap[K]) Resize(n int) {
	if cap(h.items) < n {
		h.items = make([]Entry[K], 0, n)
	}
	h.items = h.items[:0]
	if cap(h.positions) < n {
		h.positions = make([]int32, n)
	}
	h.positions = h.positions[:n]
	for i := range h.positions {
		h.positions[i] = -1
	}
}

// Clear removes every entry and forgets the id range.
func (h *IndexedMaxHeap[K]) Clear() {
	h.items = h.items[:0]
	h.positions = h.positions[:0]
}

// Len returns the number of entries.
func (h *IndexedMaxHeap[K]) Len() int { return len(h.items) }

// Empty reports whether the heap has no entries.
func (h *IndexedMaxHeap[K]) Empty() bool { return len(h.items) == 0 }

// Contains reports whether id is in the heap.
func (h *IndexedMaxHeap[K]) Contains(id int32) bool {
	return id >= 0 && int(id) < len(h.positions) && h.positions[id] >= 0
}

// Load places ids 0..len(keys)-1 with the given keys and builds the heap in O(n).
func (h *IndexedMaxHeap[K]) Load(keys []K) {
	h.Resize(len(keys))
	h.items = h.items[:len(keys)]
	for i, k := range keys {
		h.items[i] = Entry[K]{ID: int32(i), Key: k}
		h.positions[i] = int32(i)
	}
	h.Build()
}

// Insert adds id with key. It panics if id is outside the range or already present.
func (h *IndexedMaxHeap[K]) Insert(id int32, key K) {
	if h.Contains(id) {
		panic("queue: id already present")
	}
	h.items = append(h.items, Entry[K]{ID: id, Key: key})
	h.positions[id] = int32(len(h.items) - 1)
	h.SiftUp(len(h.items) - 1)
}

// Remove deletes id if present.
func (h *IndexedMaxHeap[K]) Remove(id int32) {
	if !h.Contains(id) {
		return
	}
	i := int(h.positions[id])
	last := len(h.items) - 1
	if i != last {
		h.swap(i, last)
	}
	h.items[last] = Entry[K]{}
	h.items = h.items[:last]
	h.positions[id] = -1
	if i < last {
		h.fix(i)
	}
}

// DeleteTop removes the root.
func (h *IndexedMaxHeap[K]) DeleteTop() {
	if len(h.items) == 0 {
		return
	}
	h.Remove(h.items[0].ID)
}

// AdjustKey replaces the key of id and restores the heap order.
// The new key is always stored, even when it compares equal to the old one.
func (h *IndexedMaxHeap[K]) AdjustKey(id int32, key K) {
	i := int(h.positions[id])
	h.items[i].Key = key
	h.fix(i)
}

// SetKey replaces the key of id without reheapifying. Call Build afterwards.
func (h *IndexedMaxHeap[K]) SetKey(id int32, key K) {
	h.items[h.positions[id]].Key = key
}

// Top returns the id at the root, or -1 when empty.
func (h *IndexedMaxHeap[K]) Top() int32 {
	if len(h.items) == 0 {
		return -1
	}
	return h.items[0].ID
}

// TopKey returns the key at the root. The heap must not be empty.
func (h *IndexedMaxHeap[K]) TopKey() K {
	return h.items[0].Key
}

// Key returns the key of id.
func (h *IndexedMaxHeap[K]) Key(id int32) K {
	return h.items[h.positions[id]].Key
}

// Position returns the slot of id, or -1 when absent.
func (h *IndexedMaxHeap[K]) Position(id int32) int {
	if id < 0 || int(id) >= len(h.positions) {
		return -1
	}
	return int(h.positions[id])
}

// At returns the entry stored in slot i.
func (h *IndexedMaxHeap[K]) At(i int) Entry[K] {
	return h.items[i]
}

// Build restores the heap order bottom-up in O(n).
func (h *IndexedMaxHeap[K]) Build() {
	if h.IsHeap() {
		return
	}
	for i := len(h.items)/2 - 1; i >= 0; i-- {
		h.SiftDown(i)
	}
}

// SiftDown moves the entry in slot i towards the leaves until both children are not greater.
func (h *IndexedMaxHeap[K]) SiftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && h.greater(h.items[r].Key, h.items[l].Key) {
			best = r
		}
		if !h.greater(h.items[best].Key, h.items[i].Key) {
			return
		}
		h.swap(i, best)
		i = best
	}
}

// SiftUp moves the entry in slot i towards the root while it is greater than its parent.
func (h *IndexedMaxHeap[K]) SiftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.greater(h.items[i].Key, h.items[p].Key) {
			return
		}
		h.swap(i, p)
		i = p
	}
}

// IsHeap reports whether no child is greater than its parent.
func (h *IndexedMaxHeap[K]) IsHeap() bool {
	for i := 1; i < len(h.items); i++ {
		if h.greater(h.items[i].Key, h.items[(i-1)/2].Key) {
			return false
		}
	}
	return true
}

// PositionsMatch reports whether the id -> slot map is the inverse of the slot array.
func (h *IndexedMaxHeap[K]) PositionsMatch() bool {
	present := 0
	for id, pos := range h.positions {
		if pos < 0 {
			continue
		}
		present++
		if int(pos) >= len(h.items) || h.items[pos].ID != int32(id) {
			return false
		}
	}
	return present == len(h.items)
}

// MemoryUsage returns the approximate number of bytes held by the heap.
func (h *IndexedMaxHeap[K]) MemoryUsage() int {
	var e Entry[K]
	return cap(h.items)*int(unsafe.Sizeof(e)) + cap(h.positions)*4
}

func (h *IndexedMaxHeap[K]) fix(i int) {
	if i > 0 && h.greater(h.items[i].Key, h.items[(i-1)/2].Key) {
		h.SiftUp(i)
		return
	}
	h.SiftDown(i)
}

func (h *IndexedMaxHeap[K]) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.positions[h.items[i].ID] = int32(i)
	h.positions[h.items[j].ID] = int32(j)
}
