package bump

import (
	"unsafe"

	"github.com/kellanburket/allockit/blockmgr"
)

// Typed wraps an Allocator with a fixed element type, the way a C++
// allocator<T> wraps a raw allocator. Its element alignment is derived
// automatically from T rather than left to the caller.
type Typed[T any] struct {
	a *Allocator
}

// NewTyped creates a Typed[T] from cfg, backed by p. cfg.Alignment is
// raised to at least T's natural alignment if it falls short.
func NewTyped[T any](p blockmgr.Provider, cfg Config) (*Typed[T], error) {
	var zero T
	natural := unsafe.Alignof(zero)
	if cfg.Alignment < natural {
		cfg.Alignment = natural
	}
	a, err := New(p, cfg)
	if err != nil {
		return nil, err
	}
	return &Typed[T]{a: a}, nil
}

// New bumps space for one T, clears it to T's zero value, and returns a
// pointer to it. Returns nil under the same conditions Allocator.Allocate
// returns 0.
func (t *Typed[T]) New() *T {
	var zero T
	size := unsafe.Sizeof(zero)
	addr := t.a.Allocate(size)
	if addr == 0 {
		return nil
	}
	clear(unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)) //nolint:govet
	return (*T)(unsafe.Pointer(addr))                        //nolint:govet
}

// Reset releases the underlying block chain. See Allocator.Reset.
func (t *Typed[T]) Reset() {
	t.a.Reset()
}

// Stats returns the underlying allocator's activity snapshot.
func (t *Typed[T]) Stats() Stats {
	return t.a.Stats()
}

// Equal always reports true, regardless of other's type or value. Two
// bump allocators of any element types compare equal unconditionally — a
// deliberate choice so that containers parameterized by a Typed[T] can
// rebind it to a Typed[U] and treat both as interchangeable, mirroring
// the stateless-equality contract C++'s std::allocator gives its own
// rebind machinery.
func (t *Typed[T]) Equal(other any) bool {
	return true
}
