// Package triplebuffer implements component C3: a fixed three-slot SPSC
// mailbox for the latest value of a trivially copyable type T. Update and
// Get are both wait-free; Get returns the most recently published value,
// or ok=false if nothing new has been published since the last call.
package triplebuffer

import "sync/atomic"

const uninitBit = uint32(0b100)

// Buffer is a single-producer/single-consumer "latest value wins"
// mailbox. Construct it with New: on a Buffer from New the first Get
// returns ok=false until Update has been called at least once. The zero
// value is not ready to use, since its three slot indices all start at 0.
type Buffer[T any] struct {
	storage    [3]T
	writeIndex uint32
	readIndex  uint32
	next       atomic.Uint32
}

// New constructs a ready-to-use Buffer.
func New[T any]() *Buffer[T] {
	b := &Buffer[T]{readIndex: 1}
	b.next.Store(2 | uninitBit)
	return b
}

// Update stores v as the newest value. Wait-free. Must only be called
// from the single producer thread.
func (b *Buffer[T]) Update(v T) {
	b.storage[b.writeIndex] = v
	b.writeIndex = b.next.Swap(b.writeIndex) &^ uninitBit
}

// Get returns the most recently published value not yet observed by this
// side, or ok=false if nothing new has been published since the last
// Get. Wait-free. Must only be called from the single consumer thread.
func (b *Buffer[T]) Get() (v T, ok bool) {
	b.readIndex = b.next.Swap(b.readIndex | uninitBit)
	if b.readIndex&uninitBit != 0 {
		return v, false
	}
	return b.storage[b.readIndex], true
}
