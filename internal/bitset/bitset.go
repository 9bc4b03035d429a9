package bitset

import (
	"math/bits"
	"sync/atomic"
)

// BitSet is a fixed-size bitset whose bits can be written concurrently.
//
// Set, Unset, Assign, Test and TestAndSet are lock-free and safe to call from
// many goroutines, including on bits that share a word. Resize is not.
type BitSet struct {
	words []atomic.Uint64
	size  uint64
}

// New creates a BitSet holding size bits, all clear.
func New(size uint64) *BitSet {
	b := &BitSet{}
	b.Resize(size)
	return b
}

// Resize drops all bits and reallocates for size bits.
// It must not race with any other method.
func (b *BitSet) Resize(size uint64) {
	n := int((size + 63) / 64)
	if cap(b.words) >= n {
		b.words = b.words[:n]
		for i := range b.words {
			b.words[i].Store(0)
		}
	} else {
		b.words = make([]atomic.Uint64, n)
	}
	b.size = size
}

// Len returns the size of the bitset in bits.
func (b *BitSet) Len() uint64 {
	return b.size
}

// Set sets bit i. Out-of-range indexes are ignored.
func (b *BitSet) Set(i uint64) {
	if i >= b.size {
		return
	}
	b.words[i/64].Or(uint64(1) << (i % 64))
}

// Unset clears bit i. Out-of-range indexes are ignored.
func (b *BitSet) Unset(i uint64) {
	if i >= b.size {
		return
	}
	b.words[i/64].And(^(uint64(1) << (i % 64)))
}

// Assign sets bit i to v.
func (b *BitSet) Assign(i uint64, v bool) {
	if v {
		b.Set(i)
	} else {
		b.Unset(i)
	}
}

// Test returns true if bit i is set.
func (b *BitSet) Test(i uint64) bool {
	if i >= b.size {
		return false
	}
	return b.words[i/64].Load()&(uint64(1)<<(i%64)) != 0
}

// TestAndSet sets bit i and returns true if it was ALREADY set.
func (b *BitSet) TestAndSet(i uint64) bool {
	if i >= b.size {
		return false
	}
	w := &b.words[i/64]
	mask := uint64(1) << (i % 64)

	// Optimistic check
	if w.Load()&mask != 0 {
		return true
	}
	for {
		old := w.Load()
		if old&mask != 0 {
			return true
		}
		if w.CompareAndSwap(old, old|mask) {
			return false
		}
	}
}

// Count returns the number of set bits.
func (b *BitSet) Count() int {
	count := 0
	for i := range b.words {
		if v := b.words[i].Load(); v != 0 {
			count += bits.OnesCount64(v)
		}
	}
	return count
}

// ClearAll clears all bits without changing the size.
func (b *BitSet) ClearAll() {
	for i := range b.words {
		b.words[i].Store(0)
	}
}

// MemoryUsage returns the number of bytes held by the word array.
func (b *BitSet) MemoryUsage() int {
	return cap(b.words) * 8
}
