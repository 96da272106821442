package blockmgr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kellanburket/allockit/blkhdr"
	"github.com/kellanburket/allockit/blockmgr"
	"github.com/kellanburket/allockit/platform"
)

// fakeProvider is an in-memory stand-in for provider.ByteProvider, letting
// these tests exercise Manager without touching real OS memory.
type fakeProvider struct {
	alignment  uintptr
	live       map[uintptr][]byte
	failOn     int // 1-indexed Provide call to fail, 0 = never
	calls      int
	failReturn bool
}

func newFakeProvider(alignment uintptr) *fakeProvider {
	return &fakeProvider{alignment: alignment, live: make(map[uintptr][]byte)}
}

func (f *fakeProvider) Provide(size uintptr) (uintptr, error) {
	f.calls++
	if f.calls == f.failOn {
		return 0, errors.New("fake: provide failed")
	}
	buf := make([]byte, size)
	addr, err := platform.FetchBytes(size, f.alignment)
	if err != nil {
		return 0, err
	}
	f.live[addr] = buf
	return addr, nil
}

func (f *fakeProvider) Return(addr uintptr) error {
	if f.failReturn {
		return errors.New("fake: return failed")
	}
	if _, ok := f.live[addr]; !ok {
		return errors.New("fake: unknown address")
	}
	delete(f.live, addr)
	return platform.ReturnBytes(addr)
}

func TestNew_RejectsNonPowerOfTwoAlignment(t *testing.T) {
	_, err := blockmgr.New(newFakeProvider(64), blockmgr.Config{Alignment: 100, Size: 4096})
	assert.ErrorIs(t, err, platform.ErrInvalidInput)
}

func TestNew_RejectsBlockTooSmallForHeader(t *testing.T) {
	_, err := blockmgr.New(newFakeProvider(64), blockmgr.Config{
		Alignment: 8,
		Size:      8,
		Limit:     blockmgr.NoMoreThanSizeBytes,
	})
	assert.ErrorIs(t, err, platform.ErrInvalidInput)
}

func TestNew_HaveAtLeastSizeBytes_RoundsUpForHeader(t *testing.T) {
	mgr, err := blockmgr.New(newFakeProvider(4096), blockmgr.Config{
		Alignment: 4096,
		Size:      1,
		Limit:     blockmgr.HaveAtLeastSizeBytes,
	})
	require.NoError(t, err)
	assert.Equal(t, uintptr(4096), mgr.BlockSize())
	assert.True(t, mgr.PayloadSize() >= 1)
}

func TestNew_NoMoreThanSizeBytes_EqualsExactBudget(t *testing.T) {
	mgr, err := blockmgr.New(newFakeProvider(4096), blockmgr.Config{
		Alignment: 4096,
		Size:      4096,
		Limit:     blockmgr.NoMoreThanSizeBytes,
	})
	require.NoError(t, err)
	assert.Equal(t, uintptr(4096), mgr.BlockSize())
	assert.Equal(t, uintptr(4096)-uintptr(blkhdr.Size), mgr.PayloadSize())
}

func TestNewBlock_WritesHeaderWithGivenNext(t *testing.T) {
	mgr, err := blockmgr.New(newFakeProvider(64), blockmgr.DefaultConfig())
	require.NoError(t, err)

	base, err := mgr.NewBlock(0xabc)
	require.NoError(t, err)

	h := blkhdr.At(base)
	assert.Equal(t, uint64(mgr.BlockSize()), h.Size())
	assert.Equal(t, uintptr(0xabc), h.Next())
}

func TestReleaseBlock_AlwaysFails(t *testing.T) {
	mgr, err := blockmgr.New(newFakeProvider(64), blockmgr.DefaultConfig())
	require.NoError(t, err)

	base, err := mgr.NewBlock(0)
	require.NoError(t, err)

	assert.Error(t, mgr.ReleaseBlock(base))
}

func TestReleaseAll_WalksEntireChain(t *testing.T) {
	fp := newFakeProvider(64)
	mgr, err := blockmgr.New(fp, blockmgr.DefaultConfig())
	require.NoError(t, err)

	b1, err := mgr.NewBlock(0)
	require.NoError(t, err)
	b2, err := mgr.NewBlock(b1)
	require.NoError(t, err)
	b3, err := mgr.NewBlock(b2)
	require.NoError(t, err)

	require.NoError(t, mgr.ReleaseAll(b3, 0))
	assert.Empty(t, fp.live)
}

func TestReleaseAll_StopsAtSentinelWithoutReleasingIt(t *testing.T) {
	fp := newFakeProvider(64)
	mgr, err := blockmgr.New(fp, blockmgr.DefaultConfig())
	require.NoError(t, err)

	sentinel, err := mgr.NewBlock(0)
	require.NoError(t, err)
	head, err := mgr.NewBlock(sentinel)
	require.NoError(t, err)

	require.NoError(t, mgr.ReleaseAll(head, sentinel))
	assert.Contains(t, fp.live, sentinel, "the sentinel itself must never be released")
	assert.Len(t, fp.live, 1)
}

func TestReleaseAll_PropagatesProviderFailure(t *testing.T) {
	fp := newFakeProvider(64)
	mgr, err := blockmgr.New(fp, blockmgr.DefaultConfig())
	require.NoError(t, err)

	base, err := mgr.NewBlock(0)
	require.NoError(t, err)

	fp.failReturn = true
	err = mgr.ReleaseAll(base, 0)
	assert.ErrorIs(t, err, platform.ErrInternal)
	assert.ErrorIs(t, err, blockmgr.ErrReleaseFailed)
}
