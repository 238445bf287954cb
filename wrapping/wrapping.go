// Package wrapping implements the modular-distance arithmetic RTP uses for
// its 16-bit sequence numbers and 32-bit timestamps (RFC 3550 §3).
package wrapping

// Uint16 is an RTP sequence number: a 16-bit counter that wraps at 0xFFFF.
// Comparisons use signed modular distance, not raw integer comparison.
type Uint16 uint16

// Distance returns b-a as a signed 16-bit wrap-around distance in
// [-32768, 32767]. A positive result means b is "after" a.
func (a Uint16) Distance(b Uint16) int32 {
	return int32(int16(uint16(b) - uint16(a)))
}

// Less reports whether a precedes b on the wrapping timeline.
func (a Uint16) Less(b Uint16) bool {
	return a.Distance(b) > 0
}

// LessOrEqual reports whether a precedes or equals b on the wrapping timeline.
func (a Uint16) LessOrEqual(b Uint16) bool {
	return a == b || a.Less(b)
}

// Add returns a+n wrapped into Uint16.
func (a Uint16) Add(n int32) Uint16 {
	return Uint16(uint16(int32(a) + n))
}

// Uint32 is an RTP timestamp: a 32-bit counter that wraps at 0xFFFFFFFF.
type Uint32 uint32

// Distance returns b-a as a signed 32-bit wrap-around distance.
func (a Uint32) Distance(b Uint32) int64 {
	return int64(int32(uint32(b) - uint32(a)))
}

// Less reports whether a precedes b on the wrapping timeline.
func (a Uint32) Less(b Uint32) bool {
	return a.Distance(b) > 0
}

// LessOrEqual reports whether a precedes or equals b on the wrapping timeline.
func (a Uint32) LessOrEqual(b Uint32) bool {
	return a == b || a.Less(b)
}

// Add returns a+n wrapped into Uint32.
func (a Uint32) Add(n int64) Uint32 {
	return Uint32(uint32(int64(a) + n))
}

// Max returns whichever of a, b is later on the wrapping timeline.
func Max(a, b Uint32) Uint32 {
	if a.Less(b) {
		return b
	}
	return a
}
