// Package blkhdr implements the in-band block header and singly linked
// list shared by every fixed-size block the block manager hands out.
//
// The header is a POD prefix written into the first bytes of the memory it
// describes. Because of that, releasing a block destroys its own header —
// any list walk must read a node's next pointer before releasing the node
// (see ReleaseList).
package blkhdr

import "unsafe"

// Size is the fixed byte size of a Header.
const Size = unsafe.Sizeof(Header{})

// Header is the fixed-size structure placed at the base of every block.
// For a block whose header is at base, base+Size() is the first address
// past the block.
type Header struct {
	size uint64
	next uintptr
}

// At returns the header stored at addr. addr must be the base address of a
// block previously written by Create.
func At(addr uintptr) *Header {
	return (*Header)(unsafe.Pointer(addr)) //nolint:govet
}

// Create writes a header at the base of the byte range [base, base+size)
// describing a block of that size, linked to next, and returns it.
//
// Precondition: size >= blkhdr.Size and base is aligned to the caller's
// configured block alignment.
func Create(base uintptr, size uint64, next uintptr) *Header {
	h := At(base)
	h.size = size
	h.next = next
	return h
}

// Size returns the block's total byte size, including this header.
func (h *Header) Size() uint64 {
	return h.size
}

// Next returns the base address of the next block in this header's list,
// or 0 if this is the last block.
func (h *Header) Next() uintptr {
	return h.next
}

// SetNext rewrites the next pointer of the header at addr. Used when
// chaining blocks: a block's successor isn't known until after the
// successor itself has been allocated.
func SetNext(addr uintptr, next uintptr) {
	At(addr).next = next
}
