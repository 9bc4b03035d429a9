package bitset

import (
	"sync"
	"testing"
)

func TestBitSet(t *testing.T) {
	b := New(100)

	if b.Len() != 100 {
		t.Errorf("expected len 100, got %d", b.Len())
	}

	b.Set(10)
	if !b.Test(10) {
		t.Errorf("expected bit 10 to be set")
	}

	if b.Count() != 1 {
		t.Errorf("expected count 1, got %d", b.Count())
	}

	b.Unset(10)
	if b.Test(10) {
		t.Errorf("expected bit 10 to be unset")
	}

	b.Set(10)
	b.Set(20)
	b.Set(99)
	b.Set(100) // out of range, ignored

	if b.Count() != 3 {
		t.Errorf("expected count 3, got %d", b.Count())
	}

	b.ClearAll()
	if b.Count() != 0 {
		t.Errorf("expected count 0 after clear, got %d", b.Count())
	}
}

func TestBitSet_Assign(t *testing.T) {
	b := New(8)
	b.Assign(3, true)
	if !b.Test(3) {
		t.Errorf("expected bit 3 to be set")
	}
	b.Assign(3, false)
	if b.Test(3) {
		t.Errorf("expected bit 3 to be unset")
	}
}

func TestBitSet_Resize(t *testing.T) {
	b := New(10)
	b.Set(5)

	b.Resize(200)
	if b.Len() != 200 {
		t.Errorf("expected len 200, got %d", b.Len())
	}
	if b.Test(5) {
		t.Errorf("expected resize to clear bits")
	}

	b.Set(150)
	b.Resize(64)
	if b.Count() != 0 {
		t.Errorf("expected count 0 after shrinking, got %d", b.Count())
	}
	if b.MemoryUsage() < 8 {
		t.Errorf("expected at least one word, got %d bytes", b.MemoryUsage())
	}
}

func TestBitSet_TestAndSet(t *testing.T) {
	b := New(100)
	if b.TestAndSet(50) {
		t.Errorf("expected bit 50 to be unset initially")
	}
	if !b.TestAndSet(50) {
		t.Errorf("expected bit 50 to be set")
	}
	if b.TestAndSet(500) {
		t.Errorf("expected out-of-range bit to report unset")
	}
}

func TestBitSet_ConcurrentAssign(t *testing.T) {
	const n = 4096
	b := New(n)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < n; i += 8 {
				b.Assign(uint64(i), i%3 == 0)
			}
		}(w)
	}
	wg.Wait()

	want := 0
	for i := 0; i < n; i++ {
		if i%3 == 0 {
			want++
		}
		if b.Test(uint64(i)) != (i%3 == 0) {
			t.Fatalf("bit %d has wrong value", i)
		}
	}
	if b.Count() != want {
		t.Errorf("expected count %d, got %d", want, b.Count())
	}
}
