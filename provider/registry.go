package provider

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/kellanburket/allockit/platform"
)

// regState is the registry header's 2-bit lifecycle state.
type regState uint8

const (
	stateInactive regState = iota
	stateEmpty
	statePartial
	stateFull
)

// Registry layout. Each registry page is an array of 8-byte slots; the
// first headerSlots slots hold the packed header, the rest hold packed
// spans. A span (48-bit base + 16-bit count) and the header's two words
// (48+12+2 bits and 48 bits) are each dense enough to fit in one 64-bit
// word, so a slot is just a uint64.
const (
	slotBytes    = 8
	headerSlots  = 2
	addrBits     = 48
	addrMask     = uint64(1)<<addrBits - 1
	nextSlotBits = 12
	nextSlotMask = uint64(1)<<nextSlotBits - 1
	stateShift   = addrBits + nextSlotBits
	stateMask    = uint64(0b11)
)

func packWord0(selfAddr uintptr, nextSlot uint32, state regState) uint64 {
	return (uint64(selfAddr) & addrMask) |
		(uint64(nextSlot)&nextSlotMask)<<addrBits |
		(uint64(state)&stateMask)<<stateShift
}

func unpackWord0(w uint64) (selfAddr uintptr, nextSlot uint32, state regState) {
	selfAddr = uintptr(w & addrMask)
	nextSlot = uint32((w >> addrBits) & nextSlotMask)
	state = regState((w >> stateShift) & stateMask)
	return
}

func packSpan(s platform.Span) uint64 {
	return uint64(s.Count)<<addrBits | (uint64(s.Base) & addrMask)
}

func unpackSpan(w uint64) platform.Span {
	return platform.Span{Base: uintptr(w & addrMask), Count: uint16(w >> addrBits)}
}

func regBytes(base uintptr, n uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(base)), n) //nolint:govet
}

func readWord(base uintptr, slot uint32) uint64 {
	return binary.LittleEndian.Uint64(regBytes(base+uintptr(slot)*slotBytes, slotBytes))
}

func writeWord(base uintptr, slot uint32, w uint64) {
	binary.LittleEndian.PutUint64(regBytes(base+uintptr(slot)*slotBytes, slotBytes), w)
}

// pageSource is the subset of the platform package's page primitives the
// registry needs. Exists so tests can substitute a fake that injects
// failures without touching real OS memory.
type pageSource interface {
	FetchPages(count uint16) (platform.Span, error)
	ReturnPages(platform.Span) error
	PageSize() uintptr
}

type osPages struct{}

func (osPages) FetchPages(count uint16) (platform.Span, error) { return platform.FetchPages(count) }
func (osPages) ReturnPages(s platform.Span) error               { return platform.ReturnPages(s) }
func (osPages) PageSize() uintptr                               { return platform.PageSize() }

// registrySet is the lock-free-by-design span registry: a chain of
// fixed-size pages, each holding a header plus as many span slots as fit
// in the rest of the page.
//
// The header logically packs into a single 128-bit word subject to a
// hardware double-word compare-and-swap, which is how a true lock-free
// implementation would publish slot reservations. Go has no such
// primitive (sync/atomic tops out at 64 bits), so this registry
// substitutes a mutex instead: mu serializes every registry header read
// and mutation, and the insert and install protocols below are correct by
// mutual exclusion rather than by CAS retry. This trades lock-freedom for
// portability — see DESIGN.md for the full reasoning.
type registrySet struct {
	mu            sync.Mutex
	pages         pageSource
	registryPages uint16
	pageBytes     uintptr
	slotCapacity  uint32

	current uintptr // self-address of the current registry; 0 = Inactive
}

func newRegistrySet(pages pageSource, registryPages uint16) (*registrySet, error) {
	pageBytes := pages.PageSize() * uintptr(registryPages)
	slotCapacity := uint32(pageBytes / slotBytes)
	if uint64(slotCapacity) > nextSlotMask {
		return nil, fmt.Errorf("%w: a %d-page registry has %d slots, more than the 12-bit slot index can address",
			platform.ErrInvalidInput, registryPages, slotCapacity)
	}
	return &registrySet{
		pages:         pages,
		registryPages: registryPages,
		pageBytes:     pageBytes,
		slotCapacity:  slotCapacity,
	}, nil
}

func (r *registrySet) stateOf(reg uintptr) regState {
	_, _, state := unpackWord0(readWord(reg, 0))
	return state
}

func (r *registrySet) nextSlotOf(reg uintptr) uint32 {
	_, slot, _ := unpackWord0(readWord(reg, 0))
	return slot
}

func (r *registrySet) nextRegistryOf(reg uintptr) uintptr {
	return uintptr(readWord(reg, 1) & addrMask)
}

// installLocked fetches a fresh registry page and splices it in ahead of
// the current registry, linking back to it via next_registry so it stays
// searchable once superseded. Callers must hold mu.
func (r *registrySet) installLocked() error {
	span, err := r.pages.FetchPages(r.registryPages)
	if err != nil {
		return fmt.Errorf("%w: %v", platform.ErrInternal, err)
	}

	newBase := span.Base
	var prevSelf uintptr
	if r.current != 0 {
		prevSelf = r.current
	}

	writeWord(newBase, 0, packWord0(newBase, headerSlots, stateEmpty))
	writeWord(newBase, 1, uint64(prevSelf)&addrMask)
	r.current = newBase
	return nil
}

// insert records span in the current registry, installing a new registry
// first if none is active or the current one is full.
func (r *registrySet) insert(span platform.Span) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		if r.current == 0 || r.stateOf(r.current) == stateFull {
			if err := r.installLocked(); err != nil {
				return err
			}
			continue
		}

		reg := r.current
		slot := r.nextSlotOf(reg)
		writeWord(reg, slot, packSpan(span))

		next := slot + 1
		newState := statePartial
		if next == r.slotCapacity {
			newState = stateFull
		}
		writeWord(reg, 0, packWord0(reg, next, newState))
		return nil
	}
}

// find scans registries from the current one backward through the
// next_registry chain, looking for a span whose base address equals addr.
// Slots within a registry are scanned newest first, so an address the
// platform has handed out more than once resolves to its latest span.
func (r *registrySet) find(addr uintptr) (platform.Span, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for reg := r.current; reg != 0; reg = r.nextRegistryOf(reg) {
		for i := r.nextSlotOf(reg); i > headerSlots; i-- {
			span := unpackSpan(readWord(reg, i-1))
			if span.Base == addr {
				return span, true
			}
		}
	}
	return platform.Span{}, false
}
