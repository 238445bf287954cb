package socketslot_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/socketslot"
)

func TestAcquireSharesSlotAcrossStreams(t *testing.T) {
	pool := socketslot.NewPool()

	a, err := pool.Acquire(0)
	require.NoError(t, err)
	require.NotNil(t, a)

	b, err := pool.Acquire(a.Port())
	require.NoError(t, err)
	require.Same(t, a, b)

	require.NoError(t, pool.Release(a.Port()))
	require.NoError(t, pool.Release(a.Port()))
}

func TestLockSharedExcludesExclusive(t *testing.T) {
	pool := socketslot.NewPool()
	slot, err := pool.Acquire(0)
	require.NoError(t, err)
	defer pool.Release(slot.Port())

	require.True(t, slot.LockShared())
	defer slot.UnlockShared()

	require.False(t, slot.LockExclusive())
}
