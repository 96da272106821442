// Package provider implements the page provider: it hands out and takes
// back whole-page spans from the platform package, and maintains a
// pointer-to-span registry so Release can reconstitute a span's page
// count from its base address alone.
package provider

import (
	"fmt"
	"sync"

	"github.com/kellanburket/allockit/platform"
)

// Stats is a point-in-time snapshot of provider activity. Purely
// observational — reading it has no effect on behavior.
type Stats struct {
	Allocations uint64
	Releases    uint64
}

// Provider is the page provider. The only state it shares across calls —
// the span registry — is synchronized internally, so Allocate and Release
// may be called concurrently from any number of goroutines.
type Provider struct {
	pages pageSource
	reg   *registrySet

	statsMu sync.Mutex
	stats   Stats

	releasedMu sync.Mutex
	released   map[uintptr]struct{}
}

// New creates a Provider from cfg. A zero-valued Config field falls back
// to DefaultConfig's value for that field.
func New(cfg Config) (*Provider, error) {
	if cfg.RegistryPages == 0 {
		cfg.RegistryPages = DefaultConfig().RegistryPages
	}
	return newProvider(osPages{}, cfg)
}

func newProvider(pages pageSource, cfg Config) (*Provider, error) {
	reg, err := newRegistrySet(pages, cfg.RegistryPages)
	if err != nil {
		return nil, err
	}
	return &Provider{pages: pages, reg: reg, released: make(map[uintptr]struct{})}, nil
}

// Allocate validates count, fetches that many pages from the platform, and
// records the resulting span in the registry. It returns the span's base
// address.
//
// On registry failure the fetched pages are returned to the platform
// before the error is propagated, so a failed Allocate never leaks pages.
func (p *Provider) Allocate(count uint16) (uintptr, error) {
	if count == 0 {
		return 0, fmt.Errorf("%w: count must be >= 1", platform.ErrInvalidInput)
	}

	span, err := p.pages.FetchPages(count)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", platform.ErrInternal, err)
	}

	if err := p.reg.insert(span); err != nil {
		_ = p.pages.ReturnPages(span)
		return 0, err
	}

	// The platform may hand out an address that was released earlier; it
	// is live again, so a Release of it must not be rejected.
	p.releasedMu.Lock()
	delete(p.released, span.Base)
	p.releasedMu.Unlock()

	p.statsMu.Lock()
	p.stats.Allocations++
	p.statsMu.Unlock()
	return span.Base, nil
}

// Release locates the span whose base address equals addr by scanning the
// registry chain, and returns its pages to the platform. The slot that
// described the span is not reclaimed — see DESIGN.md on the registry
// being grow-only — so a second Release of the same address would
// otherwise still find it; releasedMu/released tracks which addresses
// have already been given back so a re-release is rejected as invalid
// input instead of reaching the platform a second time. Allocate removes
// an address from that set when the platform hands it out again.
func (p *Provider) Release(addr uintptr) error {
	if addr == 0 {
		return fmt.Errorf("%w: nil pointer", platform.ErrInvalidInput)
	}

	span, ok := p.reg.find(addr)
	if !ok {
		return fmt.Errorf("%w: unknown pointer", platform.ErrInvalidInput)
	}

	p.releasedMu.Lock()
	if _, already := p.released[addr]; already {
		p.releasedMu.Unlock()
		return fmt.Errorf("%w: pointer already released", platform.ErrInvalidInput)
	}
	p.released[addr] = struct{}{}
	p.releasedMu.Unlock()

	if err := p.pages.ReturnPages(span); err != nil {
		return fmt.Errorf("%w: %v", platform.ErrInternal, err)
	}

	p.statsMu.Lock()
	p.stats.Releases++
	p.statsMu.Unlock()
	return nil
}

// BlockSize returns the platform page size this provider allocates in
// units of.
func (p *Provider) BlockSize() uintptr {
	return p.pages.PageSize()
}

// Stats returns a snapshot of provider activity.
func (p *Provider) Stats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}
