package allocator

import "testing"

func TestAlignRoundsUpToWordSize(t *testing.T) {
	cases := []struct {
		in, want uintptr
	}{
		{0, 0},
		{1, uintptr(wordSize)},
		{uintptr(wordSize), uintptr(wordSize)},
		{uintptr(wordSize) + 1, 2 * uintptr(wordSize)},
	}

	for _, c := range cases {
		if got := align(c.in); got != c.want {
			t.Errorf("align(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestSetupBlockRoundTrip(t *testing.T) {
	buf := make([]byte, 128)
	addr := uintptr(bytesAddr(buf))

	setupBlock(addr, 64, true)

	if got := sizeOf(addr); got != 64 {
		t.Fatalf("sizeOf = %d, want 64", got)
	}

	if !isUsed(addr) {
		t.Fatal("expected USED to be set")
	}

	if isMmaped(addr) {
		t.Fatal("expected MMAPED to be clear")
	}

	if loadWord(footerAddr(addr)) != loadWord(addr) {
		t.Fatal("footer does not mirror header")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	buf := make([]byte, 128)
	addr := uintptr(bytesAddr(buf))
	setupBlock(addr, 64, true)

	payload := payloadAddr(addr)
	if payload != addr+headerSize {
		t.Fatalf("payloadAddr = %#x, want %#x", payload, addr+headerSize)
	}

	if blockOfPayload(payload) != addr {
		t.Fatalf("blockOfPayload did not invert payloadAddr")
	}
}

func TestFreeLinksOverlayPayload(t *testing.T) {
	buf := make([]byte, 128)
	addr := uintptr(bytesAddr(buf))
	setupBlock(addr, 64, false)

	setFreeNext(addr, 0xdead)
	setFreePrev(addr, 0xbeef)

	if getFreeNext(addr) != 0xdead || getFreePrev(addr) != 0xbeef {
		t.Fatal("free list links did not round-trip through the block body")
	}
}
