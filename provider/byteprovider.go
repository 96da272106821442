package provider

import (
	"fmt"

	"github.com/kellanburket/allockit/platform"
)

// ByteProvider adapts a page-oriented Provider to the byte-oriented
// Provide/Return interface the block manager and bump allocator consume:
// it rounds a requested byte size up to a whole number of pages before
// delegating to Provider.Allocate.
type ByteProvider struct {
	Pages *Provider
}

// Provide allocates at least size bytes, rounded up to a whole number of
// pages, and returns the resulting base address.
func (b *ByteProvider) Provide(size uintptr) (uintptr, error) {
	ps := b.Pages.BlockSize()
	count := (size + ps - 1) / ps
	if count == 0 {
		count = 1
	}
	if count > 0xFFFF {
		return 0, fmt.Errorf("%w: %d bytes needs more pages than a single Allocate call can request", platform.ErrInvalidInput, size)
	}
	return b.Pages.Allocate(uint16(count))
}

// Return releases a block previously obtained through Provide.
func (b *ByteProvider) Return(addr uintptr) error {
	return b.Pages.Release(addr)
}
