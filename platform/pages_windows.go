//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// windowsPageSize is the fixed page size used by VirtualAlloc on all
// supported Windows architectures.
const windowsPageSize = 4096

// PageSize returns the platform's page size in bytes.
func PageSize() uintptr {
	return windowsPageSize
}

// FetchPages requests count contiguous pages from the OS via VirtualAlloc
// and returns the resulting span. VirtualAlloc always returns page-aligned
// addresses.
func FetchPages(count uint16) (Span, error) {
	if count == 0 {
		return Span{}, fmt.Errorf("%w: count must be >= 1", ErrInvalidInput)
	}
	size := uintptr(count) * windowsPageSize
	addr, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return Span{}, fmt.Errorf("%w: VirtualAlloc: %v", ErrInternal, err)
	}
	return Span{Base: addr, Count: count}, nil
}

// ReturnPages returns a previously fetched span to the OS via VirtualFree.
func ReturnPages(s Span) error {
	if err := windows.VirtualFree(s.Base, 0, windows.MEM_RELEASE); err != nil {
		return fmt.Errorf("%w: VirtualFree: %v", ErrInternal, err)
	}
	return nil
}
