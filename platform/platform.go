// Package platform wraps the operating system's page mapping and aligned
// byte allocation primitives behind a small, portable surface: page size,
// whole-page fetch/return, and aligned byte fetch/return.
//
// Everything above this package — the span registry, the block manager, the
// bump allocator — is written against these operations only. Per-OS
// behavior lives in pages_unix.go, pages_windows.go, and pages_fallback.go,
// selected by build tag.
package platform

// Span is a contiguous run of OS pages, identified by its base address and
// page count. The system treats addresses as fitting in 48 bits (a
// commodity 64-bit userspace) and counts as 16 bits, so a Span is dense
// enough to round-trip through a single 64-bit word — see provider.packSpan.
type Span struct {
	Base  uintptr
	Count uint16
}

// End returns the first address past the span, given the platform page size.
func (s Span) End(pageSize uintptr) uintptr {
	return s.Base + uintptr(s.Count)*pageSize
}
