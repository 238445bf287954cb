package rcu_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/rcu"
)

func TestLockSeesValuePublishedBeforeLock(t *testing.T) {
	var cell rcu.Cell[int]
	v := 42
	cell.Update(&v)

	reader := cell.CreateReader()
	lock := reader.Lock()
	defer lock.Release()
	require.Equal(t, 42, *lock.Get())
}

func TestNestedLocksReuseEpoch(t *testing.T) {
	var cell rcu.Cell[int]
	v1 := 1
	cell.Update(&v1)

	reader := cell.CreateReader()
	outer := reader.Lock()
	v2 := 2
	cell.Update(&v2)
	inner := reader.Lock()
	// The nested lock reuses the current value without needing a fresh
	// epoch registration; unlike the outer lock it may observe the newer
	// published value.
	require.Equal(t, 2, *inner.Get())
	inner.Release()
	require.Equal(t, 1, *outer.Get())
	outer.Release()
}

func TestReclaimKeepsValuesPinnedByActiveReader(t *testing.T) {
	var cell rcu.Cell[int]
	v1 := 1
	cell.Update(&v1)

	reader := cell.CreateReader()
	lock := reader.Lock()

	v2 := 2
	cell.Update(&v2)
	cell.Reclaim()

	// The reader's lock was taken while only v1 existed, so v1 must
	// survive reclamation even though v2 has since been published.
	require.Equal(t, 1, *lock.Get())
	lock.Release()
}

// Stress test mirroring property C1: many concurrent writers publish
// unique tagged values while many readers hold overlapping locks; every
// reader must always observe a non-nil, internally consistent value.
func TestConcurrentWritersReadersObserveConsistentValues(t *testing.T) {
	type tagged struct{ tag int }
	var cell rcu.Cell[tagged]
	first := tagged{tag: 0}
	cell.Update(&first)

	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(tag int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				v := tagged{tag: tag}
				cell.Update(&v)
			}
		}(i + 1)
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reader := cell.CreateReader()
			defer reader.Close()
			for j := 0; j < 1000; j++ {
				lock := reader.Lock()
				require.NotNil(t, lock.Get())
				lock.Release()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			cell.Reclaim()
		}
	}()

	wg.Wait()
}
