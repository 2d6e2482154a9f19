package allocator

import (
	"fmt"
	"sync"
	"unsafe"
)

// GlobalHeap is the process-wide Heap used by the package-level
// Allocate/Release/GetStats helpers, mirroring the teacher's
// GlobalAllocator/Initialize singleton pattern. It is nil until
// Initialize is called.
var GlobalHeap *Heap

var initOnce sync.Once

// Initialize constructs GlobalHeap with the given options. It is
// meant to run once, typically from a program's main function or an
// init-time CLI flag parse; calling it again after a successful first
// call is a no-op, again following the teacher's Initialize contract.
func Initialize(opts ...Option) error {
	var err error

	initOnce.Do(func() {
		GlobalHeap, err = NewHeap(opts...)
	})

	return err
}

// mustGlobal panics if Initialize was never called, the same
// fail-fast the teacher's package-level Alloc/Free apply to a nil
// GlobalAllocator.
func mustGlobal() *Heap {
	if GlobalHeap == nil {
		panic(fmt.Sprintf("allocator: %s called before Initialize", "global heap"))
	}

	return GlobalHeap
}

// Allocate delegates to GlobalHeap.
func Allocate(n uintptr) unsafe.Pointer {
	return mustGlobal().Allocate(n)
}

// Release delegates to GlobalHeap.
func Release(p unsafe.Pointer) {
	mustGlobal().Release(p)
}

// GetStats delegates to GlobalHeap.
func GetStats() Stats {
	return mustGlobal().Stats()
}
