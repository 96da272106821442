package platform

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/kellanburket/allockit/internal/align"
)

// byteMu and byteBuf pin heap buffers handed out by FetchBytes. Like the
// fallback page allocator, the only reference an allocator above this
// package keeps is the returned uintptr address, which the garbage
// collector does not treat as a root — so the backing array must be kept
// alive here until ReturnBytes releases it.
var (
	byteMu  sync.Mutex
	byteBuf = make(map[uintptr][]byte)
)

// FetchBytes returns the address of a heap-backed buffer of at least size
// bytes whose address is a multiple of align, which must be a power of two.
// The buffer is pinned against garbage collection until ReturnBytes is
// called with the returned address.
func FetchBytes(size, alignment uintptr) (uintptr, error) {
	if !align.IsPowerOfTwo(alignment) {
		return 0, fmt.Errorf("%w: alignment must be a power of two, got %d", ErrInvalidInput, alignment)
	}
	if size == 0 {
		return 0, fmt.Errorf("%w: size must be >= 1", ErrInvalidInput)
	}

	buf := make([]byte, size+alignment-1)
	raw := uintptr(unsafe.Pointer(&buf[0]))
	addr := (raw + alignment - 1) &^ (alignment - 1)

	byteMu.Lock()
	byteBuf[addr] = buf
	byteMu.Unlock()

	return addr, nil
}

// ReturnBytes unpins and releases a buffer previously fetched via FetchBytes.
func ReturnBytes(addr uintptr) error {
	byteMu.Lock()
	defer byteMu.Unlock()

	if _, ok := byteBuf[addr]; !ok {
		return fmt.Errorf("%w: unknown address", ErrInvalidInput)
	}
	delete(byteBuf, addr)
	return nil
}
