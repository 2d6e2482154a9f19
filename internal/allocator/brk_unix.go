//go:build linux || darwin

package allocator

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// osProgramBreakGrow simulates the "advance program break" primitive of
// spec.md §4.6. Go exposes no portable brk(2); a private anonymous
// mapping stands in for it, the same way the teacher's
// internal/runtime/asyncio platform files reach for golang.org/x/sys/unix
// directly whenever there is no higher-level std wrapper for a syscall.
// Growth regions obtained this way are tracked by the caller (region.go)
// exactly like a real sbrk extension: they may or may not land adjacent
// to the previous end, and the growth protocol in grow.go is the piece
// that reconciles either outcome. Assigned to the programBreakGrow
// package variable in grow.go; tests substitute a fake there to force a
// deterministic gap instead of depending on incidental mmap placement.
func osProgramBreakGrow(size uintptr) (addr uintptr, granted uintptr, err error) {
	buf, mmapErr := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if mmapErr != nil {
		return 0, 0, fmt.Errorf("allocator: program-break extension failed: %w", mmapErr)
	}

	growthMappings.track(buf)

	return uintptr(bytesAddr(buf)), uintptr(len(buf)), nil
}

// osProgramBreakRelease gives back a growth region that could not be
// reconciled (the unsupported second-gap case in grow.go). Assigned to
// the programBreakRelease package variable in grow.go.
func osProgramBreakRelease(addr, size uintptr) {
	if buf, ok := growthMappings.untrack(addr); ok {
		_ = unix.Munmap(buf)
	}
}

// osPageSize returns the platform's page size.
func osPageSize() uintptr {
	return uintptr(unix.Getpagesize())
}

// mmapLarge obtains a page-aligned, privately-backed mapping of at
// least size bytes directly from the OS for the large-block
// collaborator (largeblock.go).
func mmapLarge(size uintptr) (uintptr, error) {
	buf, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, fmt.Errorf("allocator: large-block mmap failed: %w", err)
	}

	growthMappings.track(buf)

	return uintptr(bytesAddr(buf)), nil
}

// munmapLarge unmaps a region obtained from mmapLarge.
func munmapLarge(addr, size uintptr) error {
	buf, ok := growthMappings.untrack(addr)
	if !ok {
		return fmt.Errorf("allocator: munmap of untracked region %#x", addr)
	}

	return unix.Munmap(buf)
}

// mmapTracker remembers the []byte a mapping was returned as, since
// unix.Munmap needs the original slice (length included) rather than a
// bare address. Single-threaded by the same contract as the rest of
// this package (see the concurrency notes in heap.go).
type mmapTracker struct {
	byAddr map[uintptr][]byte
}

var growthMappings = &mmapTracker{byAddr: make(map[uintptr][]byte)}

func (t *mmapTracker) track(buf []byte) {
	t.byAddr[uintptr(bytesAddr(buf))] = buf
}

func (t *mmapTracker) untrack(addr uintptr) ([]byte, bool) {
	buf, ok := t.byAddr[addr]
	if ok {
		delete(t.byAddr, addr)
	}

	return buf, ok
}
