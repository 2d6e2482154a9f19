package allocator

import "testing"

func TestSplitCarvesRemainder(t *testing.T) {
	buf := make([]byte, 256)
	addr := uintptr(bytesAddr(buf))
	setupBlock(addr, 256, false)

	remainder, did := split(addr, 64)
	if !did {
		t.Fatal("expected a split, got none")
	}

	if sizeOf(addr) != 64 {
		t.Fatalf("prefix size = %d, want 64", sizeOf(addr))
	}

	if !isUsed(addr) {
		t.Fatal("prefix should be marked used")
	}

	if remainder != addr+64 {
		t.Fatalf("remainder addr = %#x, want %#x", remainder, addr+64)
	}

	if sizeOf(remainder) != 192 {
		t.Fatalf("remainder size = %d, want 192", sizeOf(remainder))
	}

	if isUsed(remainder) {
		t.Fatal("remainder should be free")
	}
}

func TestSplitDeclinesUnusableRemainder(t *testing.T) {
	buf := make([]byte, 128)
	addr := uintptr(bytesAddr(buf))
	size := minBlockSize + wordSize // remainder would be one word, below minBlockSize
	setupBlock(addr, size, false)

	_, did := split(addr, minBlockSize)
	if did {
		t.Fatal("expected split to decline when the remainder can't stand alone")
	}
}
