package platform

import "errors"

// ErrInvalidInput is returned for malformed arguments: a zero page count,
// a non-power-of-two alignment, and similar caller errors. Every layer
// above platform reuses this sentinel rather than declaring its own, so a
// single errors.Is(err, platform.ErrInvalidInput) check works at any
// boundary in the module.
var ErrInvalidInput = errors.New("platform: invalid input")

// ErrInternal wraps an opaque failure from the underlying OS primitive
// (mmap, VirtualAlloc, the heap) or from module state that should never be
// reachable. Higher layers wrap their own causes into this sentinel via
// fmt.Errorf("%w: %w", platform.ErrInternal, cause) so callers can test for
// "something below me failed" without caring which layer it was.
var ErrInternal = errors.New("platform: internal failure")
