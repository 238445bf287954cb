// Package rcu implements component C2: a multi-variant, epoch-tracked
// read-copy-update cell. Readers (one per thread) acquire a Lock in a
// wait-free sequence of atomic loads and one atomic store; writers append
// new values under a mutex. Reclaim deletes values no longer visible to
// any active reader, but never the most recent value.
package rcu

import (
	"sync"
	"sync/atomic"
)

type epochValue[T any] struct {
	epoch uint64
	value *T
}

// Cell holds the published history of a type T. The zero Cell is usable
// once a value has been published via Update.
type Cell[T any] struct {
	mu         sync.Mutex
	values     []epochValue[T]
	readersMu  sync.Mutex
	readers    []*Reader[T]
	mostRecent atomic.Pointer[T]
	epoch      atomic.Uint64
}

// Update publishes a new value, bumping the global epoch by one. Real-time
// safe: no. Thread safe: yes.
func (c *Cell[T]) Update(value *T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mostRecent.Store(value)
	epoch := c.epoch.Add(1)
	c.values = append(c.values, epochValue[T]{epoch: epoch, value: value})
}

// Clear publishes a nil value.
func (c *Cell[T]) Clear() {
	c.Update(nil)
}

// CreateReader registers and returns a new per-thread reader. The
// returned Reader must not be shared across threads.
func (c *Cell[T]) CreateReader() *Reader[T] {
	r := &Reader[T]{owner: c}
	c.readersMu.Lock()
	c.readers = append(c.readers, r)
	c.readersMu.Unlock()
	return r
}

// removeReader deregisters a reader, e.g. when its owning thread exits.
func (c *Cell[T]) removeReader(r *Reader[T]) {
	c.readersMu.Lock()
	defer c.readersMu.Unlock()
	for i, rr := range c.readers {
		if rr == r {
			c.readers = append(c.readers[:i], c.readers[i+1:]...)
			return
		}
	}
}

// hasReaderUsingEpoch reports whether any registered reader currently has
// an active lock published at exactly the given epoch.
func (c *Cell[T]) hasReaderUsingEpoch(epoch uint64) bool {
	c.readersMu.Lock()
	defer c.readersMu.Unlock()
	for _, r := range c.readers {
		if r.epoch.Load() == epoch {
			return true
		}
	}
	return false
}

// Reclaim deletes every published value older than the oldest value any
// active reader might still reference, but never the most recent value.
// Real-time safe: no.
func (c *Cell[T]) Reclaim() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.values) == 0 {
		return
	}
	kept := 0
	for kept < len(c.values)-1 {
		if c.hasReaderUsingEpoch(c.values[kept].epoch) {
			break
		}
		kept++
	}
	c.values = c.values[kept:]
}

// Reader gives one thread wait-free access to the Cell's most recent
// published value. Pin one Reader per thread; do not share across threads.
type Reader[T any] struct {
	owner    *Cell[T]
	epoch    atomic.Uint64
	numLocks int64
}

// Close deregisters this reader from its owning Cell.
func (r *Reader[T]) Close() {
	r.owner.removeReader(r)
}

// Lock provides wait-free, read-only access to the value a Reader
// observed when the lock was acquired. Not thread safe - a Lock is owned
// by the thread that created it.
type Lock[T any] struct {
	reader *Reader[T]
	value  *T
}

// Lock acquires a read lock. The first lock taken by a reader publishes
// the current global epoch + 1 so Reclaim knows not to delete values this
// reader might still be using; nested locks on the same reader (while a
// lock from it is already outstanding) reuse that published epoch and
// simply read the latest value directly.
func (r *Reader[T]) Lock() Lock[T] {
	var value *T
	if r.numLocks >= 1 {
		value = r.owner.mostRecent.Load()
	} else {
		globalEpoch := r.owner.epoch.Load()
		r.epoch.Store(globalEpoch + 1)
		value = r.owner.mostRecent.Load()
	}
	r.numLocks++
	return Lock[T]{reader: r, value: value}
}

// Get returns the value this lock observed, or nil if the cell has never
// been updated or was last Cleared.
func (l Lock[T]) Get() *T { return l.value }

// Release releases this lock. When the releasing reader's outstanding
// lock count returns to zero, its published epoch is cleared to 0,
// signalling it no longer pins any value against reclamation.
func (l Lock[T]) Release() {
	if l.reader == nil {
		return
	}
	if l.reader.numLocks == 1 {
		l.reader.epoch.Store(0)
	}
	l.reader.numLocks--
}
