// Package ringbuffer implements component C5: a byte-oriented circular
// buffer addressed by RTP timestamp rather than by read/write index. It
// has no notion of a start timestamp or a playout delay; it is up to the
// caller to avoid overwriting newer data with older data. This lets
// multiple readers with different delay settings share one buffer.
package ringbuffer

import (
	"github.com/ravennakit-go/aoipcore/fifo"
	"github.com/ravennakit-go/aoipcore/wrapping"
)

// Ringbuffer is a timestamp-addressed circular byte buffer. The zero
// value has zero capacity; call Resize before use.
type Ringbuffer struct {
	bytesPerFrame uint32
	nextTS        wrapping.Uint32
	buffer        []byte
	groundValue   byte
}

// Resize sets the buffer's capacity in frames and its frame size in
// bytes, filling it with the ground value. A no-op if the capacity and
// frame size are unchanged.
func (r *Ringbuffer) Resize(capacityFrames, bytesPerFrame uint32) {
	newCapacity := int(capacityFrames) * int(bytesPerFrame)
	if newCapacity == len(r.buffer) && bytesPerFrame == r.bytesPerFrame {
		return
	}
	r.bytesPerFrame = bytesPerFrame
	r.buffer = make([]byte, newCapacity)
	r.fill(r.buffer, r.groundValue)
}

// SetGroundValue sets the byte value used to clear the buffer, e.g. 0x00
// for signed PCM or 0x80 for unsigned 8-bit samples.
func (r *Ringbuffer) SetGroundValue(v byte) { r.groundValue = v }

// NextTS returns the timestamp following the most recently written data
// (the write timestamp plus the number of frames written).
func (r *Ringbuffer) NextTS() wrapping.Uint32 { return r.nextTS }

// SetNextTS overrides the next-timestamp watermark.
func (r *Ringbuffer) SetNextTS(ts uint32) { r.nextTS = wrapping.Uint32(ts) }

// Write places payload at atTimestamp. payload's length must be a
// multiple of the frame size and must not exceed the buffer's total
// size. Returns false if either precondition is violated.
func (r *Ringbuffer) Write(atTimestamp uint32, payload []byte) bool {
	if r.bytesPerFrame == 0 || len(payload)%int(r.bytesPerFrame) != 0 {
		return false
	}
	if len(payload) > len(r.buffer) {
		return false
	}

	pos := fifo.NewPosition(int(uint64(atTimestamp)*uint64(r.bytesPerFrame)), len(r.buffer), len(payload))

	copy(r.buffer[pos.Index1:], payload[:pos.Size1])
	if pos.Size2 > 0 {
		copy(r.buffer, payload[pos.Size1:pos.Size1+pos.Size2])
	}

	endTS := wrapping.Uint32(atTimestamp).Add(int64(len(payload) / int(r.bytesPerFrame)))
	if r.nextTS.Less(endTS) {
		r.nextTS = endTS
	}
	return true
}

// Read copies len(dst) bytes starting at atTimestamp into dst, optionally
// clearing them to the ground value afterwards. dst's length must be a
// multiple of the frame size and must not exceed the buffer's total
// size.
func (r *Ringbuffer) Read(atTimestamp uint32, dst []byte, clearData bool) bool {
	if r.bytesPerFrame == 0 || len(dst)%int(r.bytesPerFrame) != 0 {
		return false
	}
	if len(dst) > len(r.buffer) {
		return false
	}

	pos := fifo.NewPosition(int(uint64(atTimestamp)*uint64(r.bytesPerFrame)), len(r.buffer), len(dst))

	copy(dst, r.buffer[pos.Index1:pos.Index1+pos.Size1])
	if clearData {
		r.fill(r.buffer[pos.Index1:pos.Index1+pos.Size1], r.groundValue)
	}

	if pos.Size2 > 0 {
		copy(dst[pos.Size1:], r.buffer[:pos.Size2])
		if clearData {
			r.fill(r.buffer[:pos.Size2], r.groundValue)
		}
	}
	return true
}

// ClearUntil fills the buffer with the ground value up to (but not
// including) atTimestamp. A no-op, returning false, if atTimestamp is
// not newer than the current NextTS watermark - an older packet must
// never overwrite a newer one.
func (r *Ringbuffer) ClearUntil(atTimestamp uint32) bool {
	target := wrapping.Uint32(atTimestamp)
	if !r.nextTS.Less(target) {
		return false
	}

	n := r.nextTS.Distance(target) * int64(r.bytesPerFrame)
	size := int(n)
	if size > len(r.buffer) {
		size = len(r.buffer)
	}

	pos := fifo.NewPosition(int(uint64(r.nextTS)*uint64(r.bytesPerFrame)), len(r.buffer), size)

	r.fill(r.buffer[pos.Index1:pos.Index1+pos.Size1], r.groundValue)
	if pos.Size2 > 0 {
		r.fill(r.buffer[:pos.Size2], r.groundValue)
	}

	r.nextTS = target
	return true
}

func (r *Ringbuffer) fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
