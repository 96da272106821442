//go:build !unix && !windows

package platform

import (
	"fmt"
	"sync"
	"unsafe"
)

// fallbackPageSize stands in for a real page size on platforms with no
// native page-mapping primitive. 4KiB matches the common case closely
// enough for alignment purposes.
const fallbackPageSize = 4096

// pinned retains the backing array for every span fetched through this
// file, keyed by base address. Spans handed out by this package are only
// ever referenced by their uintptr address from here on — nothing else
// roots the slice for the garbage collector — so without this map the
// backing memory could be collected out from under a live allocation.
var (
	pinMu  sync.Mutex
	pinned = make(map[uintptr][]byte)
)

// PageSize returns the platform's page size in bytes.
func PageSize() uintptr {
	return fallbackPageSize
}

// FetchPages emulates page-granular allocation with a plain heap buffer,
// pinned against collection until ReturnPages releases it. The heap gives
// no alignment guarantee, so the buffer is over-allocated by
// fallbackPageSize-1 bytes and the returned base is rounded up to the
// next page boundary, the same trick FetchBytes uses.
func FetchPages(count uint16) (Span, error) {
	if count == 0 {
		return Span{}, fmt.Errorf("%w: count must be >= 1", ErrInvalidInput)
	}
	size := int(count) * fallbackPageSize
	buf := make([]byte, size+fallbackPageSize-1)
	raw := uintptr(unsafe.Pointer(&buf[0]))
	base := (raw + fallbackPageSize - 1) &^ (fallbackPageSize - 1)

	pinMu.Lock()
	pinned[base] = buf
	pinMu.Unlock()

	return Span{Base: base, Count: count}, nil
}

// ReturnPages unpins and releases a span previously fetched via FetchPages.
func ReturnPages(s Span) error {
	pinMu.Lock()
	defer pinMu.Unlock()

	if _, ok := pinned[s.Base]; !ok {
		return fmt.Errorf("%w: unknown span", ErrInternal)
	}
	delete(pinned, s.Base)
	return nil
}
