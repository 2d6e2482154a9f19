package allocator

import "testing"

func TestNewRegionCursorsStartEqual(t *testing.T) {
	r := newRegion(4 * 1024)

	if r.start != r.top {
		t.Fatalf("fresh region: start=%#x top=%#x, want equal", r.start, r.top)
	}

	if r.end <= r.start {
		t.Fatalf("fresh region: end=%#x must be greater than start=%#x", r.end, r.start)
	}

	if r.hasGap() {
		t.Fatal("fresh region must not report a gap")
	}
}

func TestRegionAddressableRespectsBounds(t *testing.T) {
	r := newRegion(256)
	r.top = r.end // pretend the arena is full, so [start, top) is non-empty

	if r.addressable(r.start - 1) {
		t.Fatal("address before start must not be addressable")
	}

	if !r.addressable(r.start) {
		t.Fatal("start itself must be addressable")
	}

	if r.addressable(r.top) {
		t.Fatal("top is one-past-the-end and must not be addressable")
	}
}

func TestRegionAddressableExcludesGap(t *testing.T) {
	r := newRegion(256)
	r.top = r.end // pretend the arena is full

	r.gapStart = r.end
	r.gapEnd = r.end + 4096
	r.top = r.gapEnd + 256
	r.end = r.top

	if r.addressable(r.gapStart) {
		t.Fatal("gapStart must not be addressable")
	}

	if r.addressable(r.gapEnd - 1) {
		t.Fatal("the last byte before gapEnd must not be addressable")
	}

	if !r.addressable(r.gapEnd) {
		t.Fatal("gapEnd itself is the start of live memory again and must be addressable")
	}
}
