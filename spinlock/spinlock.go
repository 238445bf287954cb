// Package spinlock implements component C4: a 32-bit atomic reader/writer
// spinlock for very short critical sections, where both the audio and
// network threads take shared locks and only control threads take the
// exclusive lock. Both lock_exclusive and lock_shared spin with CAS for a
// bounded number of iterations before yielding, and fail rather than
// deadlock if the bound is reached.
package spinlock

import (
	"runtime"
	"sync/atomic"
)

const (
	hasWriter       = ^uint32(0)
	loopUpperBound  = 300_000
	yieldThreshold  = 10
)

// RWSpinlock is a reader/writer spinlock. The zero value is unlocked and
// ready to use.
type RWSpinlock struct {
	readers atomic.Uint32
}

// LockExclusive spins (yielding after yieldThreshold attempts) until it
// acquires the exclusive lock or the spin bound is reached.
// Returns false if the bound (k_loop_upper_bound) was reached.
func (l *RWSpinlock) LockExclusive() bool {
	for i := 0; i < loopUpperBound; i++ {
		if prev := l.readers.Load(); prev == 0 {
			if l.readers.CompareAndSwap(prev, hasWriter) {
				return true
			}
		}
		if i >= yieldThreshold {
			runtime.Gosched()
		}
	}
	return false
}

// TryLockExclusive attempts to acquire the exclusive lock without
// spinning.
func (l *RWSpinlock) TryLockExclusive() bool {
	if prev := l.readers.Load(); prev == 0 {
		return l.readers.CompareAndSwap(prev, hasWriter)
	}
	return false
}

// UnlockExclusive releases an exclusive lock previously acquired by
// LockExclusive/TryLockExclusive.
func (l *RWSpinlock) UnlockExclusive() {
	l.readers.Store(0)
}

// LockShared spins (yielding after yieldThreshold attempts) until it
// acquires a shared lock or the spin bound is reached.
// Returns false if the bound was reached, or if the maximum number of
// readers has already been reached.
func (l *RWSpinlock) LockShared() bool {
	for i := 0; i < loopUpperBound; i++ {
		prev := l.readers.Load()
		if prev+2 == hasWriter {
			return false // max readers reached
		}
		if prev != hasWriter {
			if l.readers.CompareAndSwap(prev, prev+1) {
				return true
			}
		}
		if i >= yieldThreshold {
			runtime.Gosched()
		}
	}
	return false
}

// TryLockShared attempts to acquire a shared lock without spinning.
func (l *RWSpinlock) TryLockShared() bool {
	prev := l.readers.Load()
	if prev != hasWriter {
		return l.readers.CompareAndSwap(prev, prev+1)
	}
	return false
}

// UnlockShared releases a shared lock previously acquired by
// LockShared/TryLockShared.
func (l *RWSpinlock) UnlockShared() {
	l.readers.Add(^uint32(0)) // -1
}
