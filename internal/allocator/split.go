package allocator

// split divides a free block into a used prefix of exactly needed bytes
// and a free suffix of the remainder, if the remainder is large enough
// to stand alone as a block. addr must already be removed from its free
// list and must not yet be marked used.
//
// When the remainder would be too small to hold its own links, the
// block is left whole (internal fragmentation is accepted rather than
// producing an unusable sliver); the caller is responsible for marking
// addr used afterward either way.
func split(addr, needed uintptr) (remainder uintptr, didSplit bool) {
	current := sizeOf(addr)
	if current < needed+minBlockSize {
		return 0, false
	}

	setupBlock(addr, needed, true)
	remainder = addr + needed
	setupBlock(remainder, current-needed, false)

	return remainder, true
}
