package allocator

import (
	"fmt"
	"log"
	"unsafe"

	"github.com/brkheap/brkheap/internal/allocerr"
)

// Config configures a Heap, built with the functional-options pattern
// the teacher's allocator.go uses for its own Config/Option pair.
type Config struct {
	// ArenaSize is the size of the static byte arena carved at
	// construction time. Rounded up to a whole number of words.
	ArenaSize uintptr

	// MmapThreshold is the aligned-payload size at and above which
	// Allocate delegates to the large-block collaborator instead of the
	// heap engine.
	MmapThreshold uintptr

	// Verbose logs allocerr's categorized diagnostics through log.Print
	// for zero-size requests, out-of-memory and a rejected second gap.
	// Successful calls are not logged.
	Verbose bool
}

type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		ArenaSize:     4 * 1024,
		MmapThreshold: 128 * 1024,
	}
}

func WithArenaSize(size uintptr) Option {
	return func(c *Config) { c.ArenaSize = size }
}

func WithMmapThreshold(size uintptr) Option {
	return func(c *Config) { c.MmapThreshold = size }
}

func WithVerbose(enabled bool) Option {
	return func(c *Config) { c.Verbose = enabled }
}

// Stats reports cumulative allocator activity, mirroring the shape of
// the teacher's AllocatorStats.
type Stats struct {
	TotalAllocated    uintptr
	TotalFreed        uintptr
	AllocationCount   uint64
	FreeCount         uint64
	ActiveAllocations int
	BytesInUse        uintptr
	LargeBlockCount   int
	LargeBlockBytes   uintptr
}

// BucketStat is a read-only snapshot of one free-list bucket, exported
// for the CLI harness's verbose dump and for tests asserting the
// "present in exactly one bucket" invariant.
type BucketStat struct {
	Bucket    int
	Count     int
	FreeBytes uintptr
}

// BlockInfo describes one physical block for the debug walker.
type BlockInfo struct {
	Addr   uintptr
	Size   uintptr
	Used   bool
	Mmaped bool
}

// Heap is the hybrid arena/program-break allocator of spec.md: a
// segregated-free-list engine over a growable byte arena, with large
// requests routed to an independent page-mapped collaborator.
//
// Heap is not safe for concurrent use. spec.md §5 treats this as a
// deliberate Non-goal: every entry point assumes it runs to completion
// before the next begins, and a caller that shares one Heap across
// goroutines must wrap every entry point in its own mutex.
type Heap struct {
	config   *Config
	region   region
	freelist freeList
	large    *largeBlocks
	pageSize uintptr

	totalAlloc      uintptr
	totalFreed      uintptr
	allocCount      uint64
	freeCount       uint64
	largeBlockCount int
	largeBlockBytes uintptr
}

// NewHeap constructs a Heap with its static arena carved and ready.
func NewHeap(opts ...Option) (*Heap, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.ArenaSize < minBlockSize {
		return nil, fmt.Errorf("allocator: arena size %d is smaller than the minimum block size %d", cfg.ArenaSize, minBlockSize)
	}

	return &Heap{
		config:   cfg,
		region:   *newRegion(cfg.ArenaSize),
		large:    newLargeBlocks(),
		pageSize: osPageSize(),
	}, nil
}

// Allocate returns a word-aligned pointer to a region of at least n
// writable bytes, or nil if n is zero or the system is out of memory.
func (h *Heap) Allocate(n uintptr) unsafe.Pointer {
	if n == 0 {
		if h.config.Verbose {
			log.Print(allocerr.ZeroSizeRequest().Error())
		}

		return nil
	}

	aligned := align(n)

	if aligned >= h.config.MmapThreshold {
		return h.allocateLarge(aligned)
	}

	total := headerSize + aligned + footerSize
	if total < minBlockSize {
		total = minBlockSize
	}

	if addr, ok := h.freelist.firstFit(total); ok {
		h.freelist.remove(addr)

		if remainder, didSplit := split(addr, total); didSplit {
			h.freelist.insert(remainder)
		}
		// split leaves addr whole (still USED=0) when the remainder
		// would be unusable; setupBlock here is what marks it used in
		// that case, and is a harmless refresh in the carved case.
		setupBlock(addr, sizeOf(addr), true)
		h.recordAlloc(sizeOf(addr))

		return unsafe.Pointer(payloadAddr(addr))
	}

	if h.region.top+total <= h.region.end {
		addr := h.region.top
		setupBlock(addr, total, true)
		h.region.top += total
		h.recordAlloc(total)

		return unsafe.Pointer(payloadAddr(addr))
	}

	payload, ok := h.growProgramBreak(total)
	if !ok {
		if h.config.Verbose {
			log.Print(allocerr.OutOfMemory(total).Error())
		}

		return nil
	}

	h.recordAlloc(total)

	return unsafe.Pointer(payload)
}

// Release returns ownership of a pointer previously returned by
// Allocate. Releasing nil is a no-op. Releasing any other pointer is
// undefined behavior, per spec.md §7 — there is no detection.
func (h *Heap) Release(p unsafe.Pointer) {
	if p == nil {
		return
	}

	addr := blockOfPayload(uintptr(p))

	if isMmaped(addr) {
		size := sizeOf(addr)
		h.large.releaseLarge(addr)
		h.largeBlockCount--
		h.largeBlockBytes -= size
		h.freeCount++
		h.totalFreed += size

		return
	}

	size := sizeOf(addr)
	setHeader(addr, size, false)
	writeFooter(addr)

	survivor := coalesce(&h.region, &h.freelist, addr)
	h.freelist.insert(survivor)

	h.freeCount++
	h.totalFreed += size
}

func (h *Heap) allocateLarge(aligned uintptr) unsafe.Pointer {
	payload := h.large.allocateLarge(aligned)
	if payload == 0 {
		if h.config.Verbose {
			log.Print(allocerr.OutOfMemory(aligned).Error())
		}

		return nil
	}

	block := blockOfPayload(payload)
	h.largeBlockCount++
	h.largeBlockBytes += sizeOf(block)
	h.allocCount++
	h.totalAlloc += sizeOf(block)

	return unsafe.Pointer(payload)
}

func (h *Heap) recordAlloc(size uintptr) {
	h.allocCount++
	h.totalAlloc += size
}

// Stats returns cumulative allocator activity.
func (h *Heap) Stats() Stats {
	return Stats{
		TotalAllocated:    h.totalAlloc,
		TotalFreed:        h.totalFreed,
		AllocationCount:   h.allocCount,
		FreeCount:         h.freeCount,
		ActiveAllocations: int(h.allocCount - h.freeCount),
		BytesInUse:        h.totalAlloc - h.totalFreed,
		LargeBlockCount:   h.largeBlockCount,
		LargeBlockBytes:   h.largeBlockBytes,
	}
}

// BucketStats returns a read-only snapshot of the six segregated
// free-list buckets.
func (h *Heap) BucketStats() [bucketCount]BucketStat {
	raw := h.freelist.stats()

	var out [bucketCount]BucketStat
	for i, s := range raw {
		out[i] = BucketStat{Bucket: i, Count: s.count, FreeBytes: s.freeBytes}
	}

	return out
}

// BlockFlags reports the USED and MMAPED flags of the block backing a
// pointer returned by Allocate, the structural check spec.md §8's
// large-block scenario asks a debug dump to make observable.
func (h *Heap) BlockFlags(p unsafe.Pointer) (used, mmaped bool) {
	addr := blockOfPayload(uintptr(p))

	return isUsed(addr), isMmaped(addr)
}

// Walk visits every physical block from the start of the static arena
// up to top, skipping the gap left by a non-contiguous program-break
// extension if one occurred. It never visits mmap-backed large blocks,
// which live outside the heap's regions entirely.
func (h *Heap) Walk(fn func(BlockInfo)) {
	addr := h.region.start

	for addr < h.region.top {
		if h.region.hasGap() && addr == h.region.gapStart {
			addr = h.region.gapEnd

			continue
		}

		fn(BlockInfo{
			Addr:   addr,
			Size:   sizeOf(addr),
			Used:   isUsed(addr),
			Mmaped: isMmaped(addr),
		})

		addr = nextPhysical(addr)
	}
}
