// Package blockmgr implements a fixed-size, aligned block producer: given
// any byte-oriented provider, it derives a single aligned block size from
// a Config and hands out and reclaims blocks of exactly that size, each
// carrying a blkhdr.Header in its first bytes.
//
// A Manager is single-threaded by contract — concurrent use of one
// instance from multiple goroutines is undefined behavior. Composing a
// Manager with a concurrent provider (such as provider.ByteProvider) is
// fine, since the provider synchronizes itself.
package blockmgr

import (
	"fmt"

	"github.com/kellanburket/allockit/blkhdr"
	"github.com/kellanburket/allockit/internal/align"
	"github.com/kellanburket/allockit/platform"
)

// Provider is the byte-oriented allocation source a Manager consumes.
// provider.ByteProvider satisfies this.
type Provider interface {
	Provide(size uintptr) (uintptr, error)
	Return(addr uintptr) error
}

// Manager produces and reclaims fixed-size, aligned blocks over a Provider.
type Manager struct {
	provider    Provider
	grow        GrowPolicy
	blockSize   uintptr
	payloadSize uintptr
}

// New creates a Manager from cfg, deriving the aligned block size. It
// fails fast if alignment is not a power of two, or if the derived block
// size leaves no room for blkhdr.Header.
func New(p Provider, cfg Config) (*Manager, error) {
	if cfg.Alignment == 0 {
		cfg.Alignment = DefaultConfig().Alignment
	}
	if cfg.Size == 0 {
		cfg.Size = DefaultConfig().Size
	}
	if !align.IsPowerOfTwo(cfg.Alignment) {
		return nil, fmt.Errorf("%w: alignment %d is not a power of two", platform.ErrInvalidInput, cfg.Alignment)
	}

	var blockSize uintptr
	switch cfg.Limit {
	case HaveAtLeastSizeBytes:
		blockSize = align.Up(cfg.Size+uintptr(blkhdr.Size), cfg.Alignment)
	case NoMoreThanSizeBytes:
		blockSize = align.Down(cfg.Size, cfg.Alignment)
	default:
		return nil, fmt.Errorf("%w: unknown limit policy %d", platform.ErrInvalidInput, cfg.Limit)
	}

	if blockSize <= uintptr(blkhdr.Size) {
		return nil, fmt.Errorf("%w: block size %d leaves no room for a %d-byte header",
			platform.ErrInvalidInput, blockSize, blkhdr.Size)
	}

	return &Manager{
		provider:    p,
		grow:        cfg.Grow,
		blockSize:   blockSize,
		payloadSize: blockSize - uintptr(blkhdr.Size),
	}, nil
}

// BlockSize returns the manager's derived aligned block size, header
// included.
func (m *Manager) BlockSize() uintptr {
	return m.blockSize
}

// PayloadSize returns the usable bytes in a block past its header.
func (m *Manager) PayloadSize() uintptr {
	return m.payloadSize
}

// Grow reports the manager's configured growth policy, so layers built on
// top (the bump allocator) can honor ReturnNull without duplicating it in
// their own Config.
func (m *Manager) Grow() GrowPolicy {
	return m.grow
}

// NewBlock requests one block from the provider and writes a header at its
// base describing this manager's block size and linking to next. It
// returns the block's base address.
func (m *Manager) NewBlock(next uintptr) (uintptr, error) {
	base, err := m.provider.Provide(m.blockSize)
	if err != nil {
		return 0, err
	}
	blkhdr.Create(base, uint64(m.blockSize), next)
	return base, nil
}

// ReleaseBlock always fails: a single block cannot be returned
// independently once it has been linked into a chain, because releasing
// it would orphan every block after it without first rewriting its
// predecessor's next pointer — a rewrite this manager has no way to
// locate, since it tracks no block list of its own (see DESIGN.md).
// Release blocks only via ReleaseAll, which walks and releases an entire
// chain in the correct order.
func (m *Manager) ReleaseBlock(base uintptr) error {
	return fmt.Errorf("%w: a single block cannot be released independently of its chain; use ReleaseAll", platform.ErrInvalidInput)
}

// ReleaseAll walks the block chain starting at head until it reaches
// sentinel or a zero address, returning each block to the provider in
// order. The first provider failure stops the walk and is returned
// wrapped in ErrReleaseFailed.
func (m *Manager) ReleaseAll(head uintptr, sentinel uintptr) error {
	err := blkhdr.ReleaseList(head, sentinel, m.provider.Return)
	if err != nil {
		return fmt.Errorf("%w: %w: %v", platform.ErrInternal, ErrReleaseFailed, err)
	}
	return nil
}
