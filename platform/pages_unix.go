//go:build unix

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PageSize returns the platform's page size in bytes.
func PageSize() uintptr {
	return uintptr(unix.Getpagesize())
}

// FetchPages requests count contiguous pages from the OS via an anonymous
// mmap and returns the resulting span. The base address is guaranteed
// page-aligned, per mmap's own contract.
func FetchPages(count uint16) (Span, error) {
	if count == 0 {
		return Span{}, fmt.Errorf("%w: count must be >= 1", ErrInvalidInput)
	}
	size := int(count) * unix.Getpagesize()
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return Span{}, fmt.Errorf("%w: mmap: %v", ErrInternal, err)
	}
	return Span{Base: uintptr(unsafe.Pointer(&data[0])), Count: count}, nil
}

// ReturnPages returns a previously fetched span to the OS via munmap.
func ReturnPages(s Span) error {
	size := int(s.Count) * unix.Getpagesize()
	data := unsafe.Slice((*byte)(unsafe.Pointer(s.Base)), size) //nolint:govet
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("%w: munmap: %v", ErrInternal, err)
	}
	return nil
}
