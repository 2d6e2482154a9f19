package allocator

// coalesce merges a just-freed block with its free physical neighbors.
// addr must already have USED cleared and its footer refreshed. The
// survivor — which assumes the lower address when a predecessor merges
// in — is returned with its header/footer already rewritten to the
// combined size; the caller is responsible for inserting it into the
// free-list bucket that matches its final size.
//
// The addressability rule below is the one piece of this package that
// cannot be gotten from pointer arithmetic alone: a neighbor address is
// only trustworthy when it falls inside [start, top) and outside the
// gap a non-contiguous program-break extension may have left behind.
// Skipping this check risks reading unrelated process data as a block
// header, or walking off the front of a region that has no predecessor.
func coalesce(r *region, fl *freeList, addr uintptr) uintptr {
	newSize := sizeOf(addr)
	survivor := addr

	next := nextPhysical(addr)
	if r.addressable(next) && !isUsed(next) {
		fl.remove(next)
		newSize += sizeOf(next)
	}

	if addr != r.start && addr != r.gapEnd {
		prevFooter := addr - footerSize
		if r.addressable(prevFooter) {
			prev := prevPhysical(addr)
			if r.addressable(prev) && !isUsed(prev) {
				fl.remove(prev)
				newSize += sizeOf(prev)
				survivor = prev
			}
		}
	}

	setupBlock(survivor, newSize, false)

	return survivor
}
