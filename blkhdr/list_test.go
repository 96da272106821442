package blkhdr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kellanburket/allockit/blkhdr"
	"github.com/kellanburket/allockit/platform"
)

// buildChain creates n blocks linked head -> ... -> tail (next=0) and
// returns their base addresses in list order.
func buildChain(t *testing.T, n int) []uintptr {
	t.Helper()
	bases := make([]uintptr, n)
	for i := n - 1; i >= 0; i-- {
		bases[i] = newBlock(t, 32)
		next := uintptr(0)
		if i < n-1 {
			next = bases[i+1]
		}
		blkhdr.Create(bases[i], 32, next)
	}
	return bases
}

func TestReleaseList_VisitsEveryNodeInOrder(t *testing.T) {
	bases := buildChain(t, 4)

	var visited []uintptr
	err := blkhdr.ReleaseList(bases[0], 0, func(base uintptr) error {
		visited = append(visited, base)
		return platform.ReturnBytes(base)
	})

	require.NoError(t, err)
	assert.Equal(t, bases, visited)
}

func TestReleaseList_StopsAtSentinel(t *testing.T) {
	bases := buildChain(t, 4)

	var visited []uintptr
	err := blkhdr.ReleaseList(bases[0], bases[2], func(base uintptr) error {
		visited = append(visited, base)
		return platform.ReturnBytes(base)
	})

	require.NoError(t, err)
	assert.Equal(t, bases[:2], visited)

	// Remaining blocks were never released through the walk; release them
	// directly so the test doesn't leak.
	require.NoError(t, platform.ReturnBytes(bases[2]))
	require.NoError(t, platform.ReturnBytes(bases[3]))
}

func TestReleaseList_StopsOnFirstFailure(t *testing.T) {
	bases := buildChain(t, 3)

	boom := errors.New("boom")
	var visited []uintptr
	err := blkhdr.ReleaseList(bases[0], 0, func(base uintptr) error {
		visited = append(visited, base)
		if base == bases[1] {
			return boom
		}
		return platform.ReturnBytes(base)
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, bases[:2], visited, "walk should stop after the failing release")

	// bases[0] was already released by the callback before the failure;
	// bases[1] failed release and bases[2] was never visited.
	require.NoError(t, platform.ReturnBytes(bases[2]))
}

func TestReleaseList_EmptyListIsNoop(t *testing.T) {
	called := false
	err := blkhdr.ReleaseList(0, 0, func(uintptr) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}
