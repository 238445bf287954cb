// Package rtppacket implements component C6: zero-copy RTP/RTCP header
// views over a caller-owned byte slice, plus a PacketBuilder for
// constructing outgoing RTP packets. RFC 3550.
package rtppacket

import "encoding/binary"

const fixedHeaderLength = 12

// PacketView is a read-only view over an RTP packet's bytes. It does not
// copy or retain the backing slice; the caller must keep it alive for as
// long as the view is used.
type PacketView struct {
	data []byte
}

// NewPacketView wraps data as an RTP packet view.
func NewPacketView(data []byte) PacketView {
	return PacketView{data: data}
}

// Validate reports whether data is long enough and well-formed enough
// for the other accessors to return meaningful values.
func (v PacketView) Validate() bool {
	if len(v.data) < fixedHeaderLength {
		return false
	}
	if v.Version() != 2 {
		return false
	}
	return len(v.data) >= int(v.HeaderTotalLength())
}

// Version returns the RTP version field, expected to be 2.
func (v PacketView) Version() uint8 {
	if len(v.data) < 1 {
		return 0
	}
	return v.data[0] >> 6
}

// Padding reports whether the padding bit is set.
func (v PacketView) Padding() bool {
	if len(v.data) < 1 {
		return false
	}
	return v.data[0]&0b0010_0000 != 0
}

// Extension reports whether the header extension bit is set.
func (v PacketView) Extension() bool {
	if len(v.data) < 1 {
		return false
	}
	return v.data[0]&0b0001_0000 != 0
}

// CSRCCount returns the number of CSRC identifiers in the header.
func (v PacketView) CSRCCount() uint32 {
	if len(v.data) < 1 {
		return 0
	}
	return uint32(v.data[0] & 0b0000_1111)
}

// MarkerBit reports whether the marker bit is set.
func (v PacketView) MarkerBit() bool {
	if len(v.data) < 2 {
		return false
	}
	return v.data[1]&0b1000_0000 != 0
}

// PayloadType returns the RTP payload type.
func (v PacketView) PayloadType() uint8 {
	if len(v.data) < 2 {
		return 0
	}
	return v.data[1] & 0b0111_1111
}

// SequenceNumber returns the RTP sequence number.
func (v PacketView) SequenceNumber() uint16 {
	if len(v.data) < 4 {
		return 0
	}
	return binary.BigEndian.Uint16(v.data[2:4])
}

// Timestamp returns the RTP timestamp.
func (v PacketView) Timestamp() uint32 {
	if len(v.data) < 8 {
		return 0
	}
	return binary.BigEndian.Uint32(v.data[4:8])
}

// SSRC returns the synchronization source identifier.
func (v PacketView) SSRC() uint32 {
	if len(v.data) < 12 {
		return 0
	}
	return binary.BigEndian.Uint32(v.data[8:12])
}

// CSRC returns the CSRC identifier at index, or 0 if index or the
// backing data is out of range.
func (v PacketView) CSRC(index uint32) uint32 {
	if index >= v.CSRCCount() {
		return 0
	}
	offset := fixedHeaderLength + int(index)*4
	if len(v.data) < offset+4 {
		return 0
	}
	return binary.BigEndian.Uint32(v.data[offset : offset+4])
}

func (v PacketView) extensionOffset() int {
	return fixedHeaderLength + int(v.CSRCCount())*4
}

// HeaderExtensionDefinedByProfile returns the profile-defined value from
// the header extension, not byte-swapped further than the plain
// big-endian read.
func (v PacketView) HeaderExtensionDefinedByProfile() uint16 {
	if !v.Extension() {
		return 0
	}
	off := v.extensionOffset()
	if len(v.data) < off+2 {
		return 0
	}
	return binary.BigEndian.Uint16(v.data[off : off+2])
}

func (v PacketView) headerExtensionLengthWords() int {
	if !v.Extension() {
		return 0
	}
	off := v.extensionOffset() + 2
	if len(v.data) < off+2 {
		return 0
	}
	return int(binary.BigEndian.Uint16(v.data[off : off+2]))
}

// HeaderExtensionData returns the header extension payload, excluding
// the 4-byte defined-by-profile/length prefix.
func (v PacketView) HeaderExtensionData() []byte {
	if !v.Extension() {
		return nil
	}
	start := v.extensionOffset() + 4
	length := v.headerExtensionLengthWords() * 4
	if len(v.data) < start+length {
		return nil
	}
	return v.data[start : start+length]
}

// HeaderTotalLength returns the length of the header in bytes, which is
// also the start index of the payload data.
func (v PacketView) HeaderTotalLength() int {
	length := v.extensionOffset()
	if v.Extension() {
		length += 4 + v.headerExtensionLengthWords()*4
	}
	return length
}

// PayloadData returns a view of the payload, with any padding bytes
// (per the padding bit and trailing length octet) stripped.
func (v PacketView) PayloadData() []byte {
	start := v.HeaderTotalLength()
	if start > len(v.data) {
		return nil
	}
	end := len(v.data)
	if v.Padding() && end > start {
		padLen := int(v.data[end-1])
		if padLen <= end-start {
			end -= padLen
		}
	}
	return v.data[start:end]
}

// Size returns the total size of the packet in bytes.
func (v PacketView) Size() int { return len(v.data) }

// Data returns the raw packet bytes.
func (v PacketView) Data() []byte { return v.data }

// PacketBuilder assembles an outgoing RTP packet into a caller-supplied
// buffer. Zero value ready to use.
type PacketBuilder struct {
	Version        uint8
	Padding        bool
	Marker         bool
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	CSRC           []uint32
	Payload        []byte
}

// Encode writes the packet into dst and returns the number of bytes
// written, or 0 if dst is too small.
func (b PacketBuilder) Encode(dst []byte) int {
	headerLen := fixedHeaderLength + len(b.CSRC)*4
	total := headerLen + len(b.Payload)
	if len(dst) < total {
		return 0
	}

	version := b.Version
	if version == 0 {
		version = 2
	}

	dst[0] = version<<6 | boolBit(b.Padding, 0b0010_0000) | byte(len(b.CSRC)&0b1111)
	dst[1] = boolBit(b.Marker, 0b1000_0000) | b.PayloadType&0b0111_1111
	binary.BigEndian.PutUint16(dst[2:4], b.SequenceNumber)
	binary.BigEndian.PutUint32(dst[4:8], b.Timestamp)
	binary.BigEndian.PutUint32(dst[8:12], b.SSRC)

	for i, csrc := range b.CSRC {
		off := fixedHeaderLength + i*4
		binary.BigEndian.PutUint32(dst[off:off+4], csrc)
	}

	copy(dst[headerLen:], b.Payload)
	return total
}

func boolBit(set bool, mask byte) byte {
	if set {
		return mask
	}
	return 0
}
