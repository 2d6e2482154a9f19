package allocator

import "unsafe"

// bytesAddr returns the address of the first byte of a non-empty slice.
// Centralizing this conversion keeps every other file free of direct
// &slice[0] unsafe casts.
func bytesAddr(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}
