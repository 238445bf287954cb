package spinlock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/spinlock"
)

func TestExclusiveExcludesShared(t *testing.T) {
	var l spinlock.RWSpinlock
	require.True(t, l.LockExclusive())
	require.False(t, l.TryLockShared())
	l.UnlockExclusive()
	require.True(t, l.TryLockShared())
	l.UnlockShared()
}

func TestMultipleSharedLocksCoexist(t *testing.T) {
	var l spinlock.RWSpinlock
	require.True(t, l.TryLockShared())
	require.True(t, l.TryLockShared())
	require.False(t, l.TryLockExclusive())
	l.UnlockShared()
	l.UnlockShared()
	require.True(t, l.TryLockExclusive())
	l.UnlockExclusive()
}

func TestConcurrentReadersWriter(t *testing.T) {
	var l spinlock.RWSpinlock
	var counter int
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				require.True(t, l.LockExclusive())
				counter++
				l.UnlockExclusive()
			}
		}()
	}

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				require.True(t, l.LockShared())
				l.UnlockShared()
			}
		}()
	}

	wg.Wait()
	require.Equal(t, 4000, counter)
}
