//go:build windows

package allocator

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// osProgramBreakGrow is the Windows counterpart of brk_unix.go: there is
// no program break on Windows either, so VirtualAlloc reserving and
// committing a fresh region stands in for it. Assigned to the
// programBreakGrow package variable in grow.go.
func osProgramBreakGrow(size uintptr) (addr uintptr, granted uintptr, err error) {
	a, allocErr := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if allocErr != nil {
		return 0, 0, fmt.Errorf("allocator: program-break extension failed: %w", allocErr)
	}

	return a, size, nil
}

// osProgramBreakRelease gives back a growth region that could not be
// reconciled (the unsupported second-gap case in grow.go). Assigned to
// the programBreakRelease package variable in grow.go.
func osProgramBreakRelease(addr, size uintptr) {
	_ = windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}

// osPageSize returns the platform's page size via x/sys/windows's
// GetSystemInfo, falling back to 4096 if it reports zero.
func osPageSize() uintptr {
	var info windows.SystemInfo

	windows.GetSystemInfo(&info)

	if info.PageSize == 0 {
		return 4096
	}

	return uintptr(info.PageSize)
}

// mmapLarge obtains a page-aligned mapping for the large-block
// collaborator (largeblock.go).
func mmapLarge(size uintptr) (uintptr, error) {
	a, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return 0, fmt.Errorf("allocator: large-block allocation failed: %w", err)
	}

	return a, nil
}

// munmapLarge releases a region obtained from mmapLarge.
func munmapLarge(addr, size uintptr) error {
	return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}
