package allocator

import (
	"log"

	"github.com/brkheap/brkheap/internal/allocerr"
)

// programBreakGrow and programBreakRelease indirect through the
// platform-specific primitives in brk_unix.go/brk_windows.go. Tests
// that need to force a deterministic gap, a contiguous extension, or a
// rejected second gap — rather than depend on incidental OS mmap
// placement — save these, substitute a fake, and restore them when
// done (see grow_test.go).
var (
	programBreakGrow    = osProgramBreakGrow
	programBreakRelease = osProgramBreakRelease
)

// growProgramBreak implements the growth protocol of this package: ask
// the OS primitive in brk_*.go for a page-aligned region of at least
// total bytes, reconcile it against the current end cursor, and carve a
// used block of exactly total bytes at the (possibly just-moved) top.
//
// At most one gap is assumed over the lifetime of a heap. A second
// non-contiguous extension after the first gap is not supported by the
// growth protocol this package implements; it is reported as
// out-of-memory rather than guessed at.
func (h *Heap) growProgramBreak(total uintptr) (uintptr, bool) {
	granted := alignUp(total, h.pageSize)

	addr, size, err := programBreakGrow(granted)
	if err != nil {
		return 0, false
	}

	r := &h.region

	switch {
	case r.end != 0 && addr == r.end:
		r.end = addr + size
	case r.hasGap():
		// A second non-contiguous extension is outside the spec this
		// engine implements; surface it as out-of-memory rather than
		// extend the one-gap model.
		programBreakRelease(addr, size)

		if h.config.Verbose {
			log.Print(allocerr.UnsupportedSecondGap(total).Error())
		}

		return 0, false
	default:
		residual := r.end - r.top
		if residual >= minBlockSize {
			setupBlock(r.top, residual, false)
			h.freelist.insert(r.top)
		}

		r.gapStart = r.end
		r.gapEnd = addr
		r.top = addr
		r.end = addr + size
	}

	r.recordExtension(addr, size)

	block := r.top
	setupBlock(block, total, true)
	r.top += total

	return payloadAddr(block), true
}

// alignUp rounds n up to a multiple of m, where m is a power of two (the
// page size, on every supported platform).
func alignUp(n, m uintptr) uintptr {
	return (n + m - 1) &^ (m - 1)
}
