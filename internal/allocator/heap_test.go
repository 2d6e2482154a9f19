package allocator

import (
	"testing"
	"unsafe"
)

func newTestHeap(t *testing.T, opts ...Option) *Heap {
	t.Helper()

	h, err := NewHeap(opts...)
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}

	return h
}

func TestAllocateZeroReturnsNil(t *testing.T) {
	h := newTestHeap(t)

	if p := h.Allocate(0); p != nil {
		t.Fatalf("Allocate(0) = %p, want nil", p)
	}
}

func TestReleaseNilIsNoop(t *testing.T) {
	h := newTestHeap(t)

	before := h.Stats()
	h.Release(nil)
	after := h.Stats()

	if before != after {
		t.Fatalf("Release(nil) changed stats: before=%+v after=%+v", before, after)
	}
}

func TestScenarioAlignment(t *testing.T) {
	h := newTestHeap(t)

	p := h.Allocate(1)
	if p == nil {
		t.Fatal("Allocate(1) returned nil")
	}

	if uintptr(p)%unsafe.Sizeof(uintptr(0)) != 0 {
		t.Fatalf("address %p is not word-aligned", p)
	}

	h.Release(p)
}

func TestScenarioReuse(t *testing.T) {
	h := newTestHeap(t)

	p1 := h.Allocate(64)
	if p1 == nil {
		t.Fatal("first Allocate(64) returned nil")
	}

	h.Release(p1)

	p2 := h.Allocate(64)
	if p2 != p1 {
		t.Fatalf("Allocate(64) after release got %p, want reused %p", p2, p1)
	}
}

func TestScenarioCoalesceAndReuse(t *testing.T) {
	h := newTestHeap(t)

	a := h.Allocate(4)
	b := h.Allocate(4)
	c := h.Allocate(4)

	if a == nil || b == nil || c == nil {
		t.Fatal("expected a, b, c all non-nil")
	}

	h.Release(a)
	h.Release(c)
	h.Release(b)

	// 12 * sizeof(a 4-byte int), matching the C-sized int of spec.md's
	// literal scenario rather than Go's 8-byte int.
	const cIntSize = 4

	p := h.Allocate(12 * cIntSize)
	if p == nil {
		t.Fatal("Allocate(12*sizeof(int)) after freeing a,c,b returned nil")
	}

	if uintptr(p) < uintptr(a) {
		t.Fatalf("reused block at %p starts before the original span start %p", p, a)
	}
}

func TestScenarioLargeBlockPath(t *testing.T) {
	h := newTestHeap(t, WithMmapThreshold(128*1024))

	const size = 256 * 1024

	p := h.Allocate(size)
	if p == nil {
		t.Fatal("Allocate(256KiB) returned nil")
	}

	buf := unsafe.Slice((*byte)(p), size)
	for i := range buf {
		buf[i] = byte(i)
	}

	if buf[size-1] != byte((size-1)&0xff) {
		t.Fatal("large block payload did not retain the full write")
	}

	if _, mmaped := h.BlockFlags(p); !mmaped {
		t.Fatal("large block does not carry the MMAPED flag")
	}

	h.Release(p)
}

func TestScenarioGrowthAcrossGap(t *testing.T) {
	h := newTestHeap(t, WithArenaSize(4*1024))

	const blocks = 70

	ptrs := make([]unsafe.Pointer, 0, blocks)

	for i := 0; i < blocks; i++ {
		p := h.Allocate(100)
		if p == nil {
			t.Fatalf("Allocate(100) #%d returned nil", i)
		}

		ptrs = append(ptrs, p)
	}

	stats := h.Stats()
	if stats.AllocationCount != blocks {
		t.Fatalf("AllocationCount = %d, want %d", stats.AllocationCount, blocks)
	}

	for _, p := range ptrs {
		h.Release(p)
	}
}

func TestScenarioFragmentationResilience(t *testing.T) {
	h := newTestHeap(t)

	const rounds = 10

	var larges []unsafe.Pointer

	for i := 0; i < rounds; i++ {
		l := h.Allocate(512)
		s := h.Allocate(64)
		m := h.Allocate(256)

		if l == nil || s == nil || m == nil {
			t.Fatalf("round %d: expected all of L,S,M non-nil", i)
		}

		h.Release(m)

		larges = append(larges, l)
	}

	for _, l := range larges {
		h.Release(l)
	}

	for i := 0; i < rounds; i++ {
		p := h.Allocate(256)
		if p == nil {
			t.Fatalf("post-fragmentation Allocate(256) #%d returned nil", i)
		}

		h.Release(p)
	}
}

func TestWalkCoversAllBlocks(t *testing.T) {
	h := newTestHeap(t, WithArenaSize(1024))

	p1 := h.Allocate(64)
	p2 := h.Allocate(64)

	var seen int

	h.Walk(func(info BlockInfo) {
		seen++

		if info.Size%unsafe.Sizeof(uintptr(0)) != 0 {
			t.Errorf("block at %#x has non-word-multiple size %d", info.Addr, info.Size)
		}
	})

	if seen != 2 {
		t.Fatalf("Walk visited %d blocks, want 2", seen)
	}

	h.Release(p1)
	h.Release(p2)
}

func TestNewHeapRejectsArenaSmallerThanMinBlock(t *testing.T) {
	if _, err := NewHeap(WithArenaSize(1)); err == nil {
		t.Fatal("expected an error for an arena smaller than the minimum block size")
	}
}
