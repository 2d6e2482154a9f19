package main

import (
	"fmt"
	"unsafe"

	"github.com/brkheap/brkheap/internal/allocator"
	"github.com/brkheap/brkheap/internal/heapdump"
)

type scenarioFunc func(h *allocator.Heap, params map[string]string) *heapdump.ScenarioReport

// scenarios mirrors spec.md §8's "End-to-end scenarios (literal)" list,
// each one runnable standalone from the command line with optional
// key=value overrides of its default sizes.
var scenarios = map[string]scenarioFunc{
	"alignment":          scenarioAlignment,
	"reuse":              scenarioReuse,
	"coalesce-and-reuse": scenarioCoalesceAndReuse,
	"large-block":        scenarioLargeBlock,
	"growth-across-gap":  scenarioGrowthAcrossGap,
	"fragmentation":      scenarioFragmentation,
}

func scenarioAlignment(h *allocator.Heap, params map[string]string) *heapdump.ScenarioReport {
	r := &heapdump.ScenarioReport{Name: "alignment"}

	p := h.Allocate(1)
	addr := uintptr(p)

	r.Add("allocate(1) is non-null", p != nil, "")
	r.Add("address is 8-byte aligned", addr%8 == 0, fmt.Sprintf("addr=%#x", addr))

	h.Release(p)

	return r
}

func scenarioReuse(h *allocator.Heap, params map[string]string) *heapdump.ScenarioReport {
	r := &heapdump.ScenarioReport{Name: "reuse"}

	size := uintptr(paramUint(params, "size", 64))

	p1 := h.Allocate(size)
	r.Add("first allocate(64) is non-null", p1 != nil, "")

	h.Release(p1)

	p2 := h.Allocate(size)
	r.Add("second allocate(64) reuses the freed block", p2 == p1, fmt.Sprintf("p1=%p p2=%p", p1, p2))

	return r
}

func scenarioCoalesceAndReuse(h *allocator.Heap, params map[string]string) *heapdump.ScenarioReport {
	r := &heapdump.ScenarioReport{Name: "coalesce-and-reuse"}

	size := uintptr(paramUint(params, "size", 4))

	a := h.Allocate(size)
	b := h.Allocate(size)
	c := h.Allocate(size)

	r.Add("a, b, c all non-null", a != nil && b != nil && c != nil, "")

	h.Release(a)
	h.Release(c)
	h.Release(b)

	// 12 * sizeof(a 4-byte int), matching spec.md's literal scenario.
	const cIntSize = 4

	p := h.Allocate(12 * cIntSize)
	r.Add("allocate(12*sizeof(int)) after freeing a,c,b is non-null", p != nil, "")

	if p != nil {
		lo := uintptr(a)
		hi := uintptr(c) + size // conservative upper bound on c's block span
		addr := uintptr(p)
		r.Add("reused address lies within the original [a, c+size) span", addr >= lo && addr < hi,
			fmt.Sprintf("addr=%#x lo=%#x hi=%#x", addr, lo, hi))
	}

	return r
}

func scenarioLargeBlock(h *allocator.Heap, params map[string]string) *heapdump.ScenarioReport {
	r := &heapdump.ScenarioReport{Name: "large-block"}

	size := uintptr(paramUint(params, "size", 256*1024))

	p := h.Allocate(size)
	r.Add("allocate(256KiB) is non-null", p != nil, "")

	if p != nil {
		buf := unsafe.Slice((*byte)(p), size)
		for i := range buf {
			buf[i] = byte(i)
		}

		r.Add("payload is writable for the full request", buf[len(buf)-1] == byte(len(buf)-1), "")

		_, mmaped := h.BlockFlags(p)
		r.Add("block carries the MMAPED flag", mmaped, "")

		h.Release(p)
	}

	return r
}

func scenarioGrowthAcrossGap(h *allocator.Heap, params map[string]string) *heapdump.ScenarioReport {
	r := &heapdump.ScenarioReport{Name: "growth-across-gap"}

	blocks := int(paramUint(params, "blocks", 70))
	blockSize := uintptr(paramUint(params, "block_size", 100))

	ptrs := make([]unsafe.Pointer, 0, blocks)
	allNonNil := true

	for i := 0; i < blocks; i++ {
		p := h.Allocate(blockSize)
		if p == nil {
			allNonNil = false
		}

		ptrs = append(ptrs, p)
	}

	r.Add(fmt.Sprintf("all %d allocations non-null", blocks), allNonNil, "")

	stats := h.Stats()
	r.Add("allocation count matches requested blocks", int(stats.AllocationCount) == blocks,
		fmt.Sprintf("count=%d", stats.AllocationCount))

	for _, p := range ptrs {
		h.Release(p)
	}

	return r
}

func scenarioFragmentation(h *allocator.Heap, params map[string]string) *heapdump.ScenarioReport {
	r := &heapdump.ScenarioReport{Name: "fragmentation"}

	rounds := int(paramUint(params, "rounds", 10))

	largeSize := uintptr(256)
	smallSize := uintptr(64)
	midSize := uintptr(256)

	ls := make([]unsafe.Pointer, 0, rounds)

	ok := true

	for i := 0; i < rounds; i++ {
		l := h.Allocate(largeSize * 2)
		s := h.Allocate(smallSize)
		m := h.Allocate(midSize)

		if l == nil || s == nil || m == nil {
			ok = false
		}

		h.Release(m)

		ls = append(ls, l)
	}

	r.Add("every round's L/S/M allocations succeeded", ok, "")

	for _, l := range ls {
		h.Release(l)
	}

	allSucceeded := true

	for i := 0; i < rounds; i++ {
		p := h.Allocate(midSize)
		if p == nil {
			allSucceeded = false
		}

		h.Release(p)
	}

	r.Add(fmt.Sprintf("%d post-fragmentation allocate(256)+release cycles all succeed", rounds), allSucceeded, "")

	return r
}
