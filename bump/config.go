package bump

import (
	"unsafe"

	"github.com/kellanburket/allockit/blockmgr"
)

// pointerSize is the platform pointer width, used as the default lower
// bound on alignment: the effective alignment is the max of the natural
// element alignment, pointer size, and any caller-specified alignment.
var pointerSize = unsafe.Sizeof(uintptr(0))

// Config is the bump allocator's configuration surface.
type Config struct {
	// Alignment is the element alignment: the base address of every value
	// handed out by Allocate is a multiple of this. Callers composing
	// Typed[T] don't set this directly — NewTyped derives it from T.
	Alignment uintptr
	// Size is the nominal per-block capacity in bytes, before the block
	// manager rounds it up to make room for a header and round it to
	// Alignment.
	Size uintptr
	// Grow selects the policy used when the active block runs out of room.
	Grow blockmgr.GrowPolicy
}

// DefaultConfig returns the bump allocator configuration used when a field
// is left at its zero value: pointer-width alignment, at least 4096 bytes
// of payload per block, growing on demand.
func DefaultConfig() Config {
	return Config{
		Alignment: pointerSize,
		Size:      4096,
		Grow:      blockmgr.GrowStorage,
	}
}
