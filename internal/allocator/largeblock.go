package allocator

// largeBlocks tracks live mmap-backed allocations. It is an optional
// side list per spec.md §4.8 — nothing in the allocate/release path
// depends on it beyond sizing the unmap call. The debug dump and Stats
// do not read it; Heap keeps its own large-block counters.
type largeBlocks struct {
	bySize map[uintptr]uintptr // block address -> mapped size
}

func newLargeBlocks() *largeBlocks {
	return &largeBlocks{bySize: make(map[uintptr]uintptr)}
}

// allocateLarge obtains a page-aligned mapping directly from the OS,
// independent of the heap engine's regions and free lists. It writes
// the header directly — size, USED, and MMAPED together — rather than
// going through setupBlock, which never touches MMAPED and would leave
// it cleared (see the open question this resolves in grow.go's sibling
// files and spec.md §9). No footer is written: mmap-backed blocks have
// no physical neighbors to coalesce with.
func (lb *largeBlocks) allocateLarge(aligned uintptr) uintptr {
	total := headerSize + aligned
	mapped := alignUp(total, osPageSize())

	addr, err := mmapLarge(mapped)
	if err != nil {
		return 0
	}

	storeWord(addr, (mapped&sizeMask)|flagUsed|flagMmaped)
	lb.bySize[addr] = mapped

	return payloadAddr(addr)
}

// releaseLarge unmaps the whole region backing a large block.
func (lb *largeBlocks) releaseLarge(block uintptr) {
	size, ok := lb.bySize[block]
	if !ok {
		size = sizeOf(block)
	}

	delete(lb.bySize, block)
	_ = munmapLarge(block, size)
}
