// Package bump implements a monotonic, per-object allocator layered on a
// blockmgr.Manager. An Allocator serves increasing requests out of the
// current block's payload until it runs out of room, then either grows a
// new block (chained behind the current one) or refuses, depending on
// Config.Grow.
//
// An Allocator is single-threaded by contract: concurrent calls to
// Allocate, Deallocate, or Reset on one instance are undefined behavior.
// Composition with a concurrent provider underneath is fine.
package bump

import (
	"github.com/kellanburket/allockit/blkhdr"
	"github.com/kellanburket/allockit/blockmgr"
	"github.com/kellanburket/allockit/internal/align"
	"github.com/kellanburket/allockit/internal/obslog"
)

// Stats is a point-in-time snapshot of allocator activity.
type Stats struct {
	Blocks         uint64
	Allocations    uint64
	BytesUsed      uintptr
	BytesRemaining uintptr
}

// Allocator is the bump allocator.
type Allocator struct {
	mgr       *blockmgr.Manager
	alignment uintptr

	// current is both the active block (new allocations are served from
	// its payload) and the head of the release chain: every earlier block
	// is reachable by following current's header next-pointer backward,
	// because growing links the new block's next to the block it
	// superseded (the same reverse-chronological layout provider's
	// registry chain uses).
	current uintptr
	offset  uintptr

	blocks      uint64
	allocations uint64
}

// New creates an Allocator from cfg, backed by p. A zero-valued Config
// field falls back to DefaultConfig's value for that field.
func New(p blockmgr.Provider, cfg Config) (*Allocator, error) {
	def := DefaultConfig()
	if cfg.Alignment == 0 {
		cfg.Alignment = def.Alignment
	}
	if cfg.Size == 0 {
		cfg.Size = def.Size
	}
	if cfg.Alignment < pointerSize {
		cfg.Alignment = pointerSize
	}

	mgr, err := blockmgr.New(p, blockmgr.Config{
		Alignment: cfg.Alignment,
		Size:      cfg.Size,
		Limit:     blockmgr.HaveAtLeastSizeBytes,
		Grow:      cfg.Grow,
	})
	if err != nil {
		return nil, err
	}

	return &Allocator{mgr: mgr, alignment: cfg.Alignment}, nil
}

// Allocate returns the base address of n freshly bumped bytes, or 0 if n,
// rounded up to the allocator's alignment, does not fit in a fresh block's
// payload, or if growth is needed but disallowed (Config.Grow ==
// blockmgr.ReturnNull), or if the provider fails to supply a new block.
//
// Allocations in a block start at the first Alignment boundary past the
// block header, so every returned address is a multiple of Alignment.
func (a *Allocator) Allocate(n uintptr) uintptr {
	start := align.Up(uintptr(blkhdr.Size), a.alignment) - uintptr(blkhdr.Size)
	request := align.Up(n, a.alignment)
	if n > a.mgr.PayloadSize() || request > a.mgr.PayloadSize()-start {
		return 0
	}

	if a.current == 0 {
		base, err := a.mgr.NewBlock(0)
		if err != nil {
			return 0
		}
		a.current = base
		a.offset = start
		a.blocks++
	}

	remaining := a.mgr.PayloadSize() - a.offset

	if request > remaining {
		if a.mgr.Grow() == blockmgr.ReturnNull {
			return 0
		}
		newBase, err := a.mgr.NewBlock(a.current)
		if err != nil {
			return 0
		}
		a.current = newBase
		a.offset = start
		a.blocks++
		remaining = a.mgr.PayloadSize() - start
	}

	result := a.current + uintptr(blkhdr.Size) + a.offset
	a.offset += request
	a.allocations++
	return result
}

// Deallocate is a no-op: the bump allocator does not support per-object
// reclamation.
func (a *Allocator) Deallocate(ptr uintptr, n uintptr) {}

// Reset releases the entire block chain and clears the allocator back to
// its initial, block-less state. This is the only means of reclaiming
// memory in the bump layer.
//
// Release failures cannot be reported to the caller — Reset has no error
// return — so they are logged through internal/obslog instead.
func (a *Allocator) Reset() {
	if a.current != 0 {
		if err := a.mgr.ReleaseAll(a.current, 0); err != nil {
			obslog.Logger().Warn("bump: release failed during reset", "err", err)
		}
	}
	a.current = 0
	a.offset = 0
	a.blocks = 0
}

// Stats returns a snapshot of allocator activity, including how much room
// is left in the block currently being bumped.
func (a *Allocator) Stats() Stats {
	remaining := a.mgr.PayloadSize()
	used := uintptr(0)
	if a.current != 0 {
		used = a.offset
		remaining -= a.offset
	}
	return Stats{
		Blocks:         a.blocks,
		Allocations:    a.allocations,
		BytesUsed:      used,
		BytesRemaining: remaining,
	}
}
