package rtppacket

import "encoding/binary"

// RTCPPacketType identifies the payload type of an RTCP packet, per the
// assignments in RFC 3550 §12.1.
type RTCPPacketType uint8

const (
	RTCPUnknown           RTCPPacketType = 0
	RTCPSenderReport      RTCPPacketType = 200
	RTCPReceiverReport    RTCPPacketType = 201
	RTCPSourceDescription RTCPPacketType = 202
	RTCPBye               RTCPPacketType = 203
	RTCPApp               RTCPPacketType = 204
)

func (t RTCPPacketType) String() string {
	switch t {
	case RTCPSenderReport:
		return "SenderReport"
	case RTCPReceiverReport:
		return "ReceiverReport"
	case RTCPSourceDescription:
		return "SourceDescriptionItems"
	case RTCPBye:
		return "Bye"
	case RTCPApp:
		return "App"
	default:
		return "Unknown"
	}
}

const (
	rtcpHeaderLength  = 8
	senderInfoLength  = 20 // 8 (NTP) + 4 (RTP ts) + 4 (packet count) + 4 (octet count)
	reportBlockLength = 24
)

// RTCPPacketView is a read-only, zero-copy view over a single RTCP
// packet, possibly one of several compound packets in a buffer.
type RTCPPacketView struct {
	data []byte
}

// NewRTCPPacketView wraps data as an RTCP packet view.
func NewRTCPPacketView(data []byte) RTCPPacketView {
	return RTCPPacketView{data: data}
}

// Validate reports whether the view is long enough and well formed
// enough for the other accessors to return meaningful values.
func (v RTCPPacketView) Validate() bool {
	if len(v.data) < rtcpHeaderLength {
		return false
	}
	if v.Version() != 2 {
		return false
	}
	if v.Type() == RTCPSenderReport && len(v.data) < rtcpHeaderLength+senderInfoLength {
		return false
	}
	return true
}

// Version returns the RTCP version field, expected to be 2.
func (v RTCPPacketView) Version() uint8 {
	if len(v.data) < 1 {
		return 0
	}
	return v.data[0] >> 6
}

// Padding reports whether the padding bit is set.
func (v RTCPPacketView) Padding() bool {
	if len(v.data) < 1 {
		return false
	}
	return v.data[0]&0b0010_0000 != 0
}

// ReceptionReportCount returns the count field (zero is valid), whose
// meaning depends on the packet type (report block count for SR/RR, SDES
// chunk count, source count for BYE).
func (v RTCPPacketView) ReceptionReportCount() uint8 {
	if len(v.data) < 1 {
		return 0
	}
	return v.data[0] & 0b0001_1111
}

// Type returns the RTCP packet type.
func (v RTCPPacketView) Type() RTCPPacketType {
	if len(v.data) < 2 {
		return RTCPUnknown
	}
	switch v.data[1] {
	case 200:
		return RTCPSenderReport
	case 201:
		return RTCPReceiverReport
	case 202:
		return RTCPSourceDescription
	case 203:
		return RTCPBye
	case 204:
		return RTCPApp
	default:
		return RTCPUnknown
	}
}

// Length returns this packet's length in 32-bit words including the
// header, i.e. the on-wire length field (which stores length-1) plus
// one.
func (v RTCPPacketView) Length() uint16 {
	if len(v.data) < 4 {
		return 0
	}
	return binary.BigEndian.Uint16(v.data[2:4]) + 1
}

// SSRC returns the synchronization source identifier of the sender of
// this packet.
func (v RTCPPacketView) SSRC() uint32 {
	if len(v.data) < 8 {
		return 0
	}
	return binary.BigEndian.Uint32(v.data[4:8])
}

// NTPTimestamp returns the wallclock send time if this is a sender
// report, or the zero timestamp otherwise.
func (v RTCPPacketView) NTPTimestamp() NTPTimestamp {
	if v.Type() != RTCPSenderReport || len(v.data) < rtcpHeaderLength+8 {
		return NTPTimestamp{}
	}
	return NTPTimestamp{
		Integer:  binary.BigEndian.Uint32(v.data[rtcpHeaderLength : rtcpHeaderLength+4]),
		Fraction: binary.BigEndian.Uint32(v.data[rtcpHeaderLength+4 : rtcpHeaderLength+8]),
	}
}

// RTPTimestamp returns the RTP timestamp corresponding to NTPTimestamp
// if this is a sender report, or 0 otherwise.
func (v RTCPPacketView) RTPTimestamp() uint32 {
	const off = rtcpHeaderLength + 8
	if v.Type() != RTCPSenderReport || len(v.data) < off+4 {
		return 0
	}
	return binary.BigEndian.Uint32(v.data[off : off+4])
}

// PacketCount returns the sender's cumulative packet count if this is a
// sender report, or 0 otherwise.
func (v RTCPPacketView) PacketCount() uint32 {
	const off = rtcpHeaderLength + 8 + 4
	if v.Type() != RTCPSenderReport || len(v.data) < off+4 {
		return 0
	}
	return binary.BigEndian.Uint32(v.data[off : off+4])
}

// OctetCount returns the sender's cumulative octet count if this is a
// sender report, or 0 otherwise.
func (v RTCPPacketView) OctetCount() uint32 {
	const off = rtcpHeaderLength + 8 + 4 + 4
	if v.Type() != RTCPSenderReport || len(v.data) < off+4 {
		return 0
	}
	return binary.BigEndian.Uint32(v.data[off : off+4])
}

func (v RTCPPacketView) reportBlocksOffset() int {
	off := rtcpHeaderLength
	if v.Type() == RTCPSenderReport {
		off += senderInfoLength
	}
	return off
}

// ReportBlock returns the report block at index, or an invalid (zero
// size) view if index is out of range.
func (v RTCPPacketView) ReportBlock(index int) ReportBlockView {
	if index < 0 || index >= int(v.ReceptionReportCount()) {
		return ReportBlockView{}
	}
	off := v.reportBlocksOffset() + index*reportBlockLength
	if len(v.data) < off+reportBlockLength {
		return ReportBlockView{}
	}
	return ReportBlockView{data: v.data[off : off+reportBlockLength]}
}

// ProfileSpecificExtension returns any profile-specific extension data
// following the fixed report blocks, or nil if there is none.
func (v RTCPPacketView) ProfileSpecificExtension() []byte {
	off := v.reportBlocksOffset() + int(v.ReceptionReportCount())*reportBlockLength
	reportedLength := int(v.Length()) * 4
	if off >= len(v.data) || reportedLength > len(v.data) || reportedLength <= off {
		return nil
	}
	return v.data[off:reportedLength]
}

// NextPacket returns the next compound RTCP packet following this one
// in the same buffer, or an invalid (empty) view if there is none.
func (v RTCPPacketView) NextPacket() RTCPPacketView {
	reportedLength := int(v.Length()) * 4
	if reportedLength <= 0 || reportedLength >= len(v.data) {
		return RTCPPacketView{}
	}
	return RTCPPacketView{data: v.data[reportedLength:]}
}

// Data returns the raw packet bytes.
func (v RTCPPacketView) Data() []byte { return v.data }

// Size returns the size of the packet in bytes.
func (v RTCPPacketView) Size() int { return len(v.data) }

// ReportBlockView is a read-only, zero-copy view over a single RTCP
// report block (used inside SR and RR packets).
type ReportBlockView struct {
	data []byte
}

// Validate reports whether the block is the expected fixed length.
func (b ReportBlockView) Validate() bool {
	return len(b.data) == reportBlockLength
}

// SSRC returns the SSRC of the source this block reports on.
func (b ReportBlockView) SSRC() uint32 {
	if len(b.data) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b.data[0:4])
}

// FractionLost returns the fraction of packets lost since the previous
// report, as an 8-bit fixed-point value (256 = 1.0).
func (b ReportBlockView) FractionLost() uint8 {
	if len(b.data) < 5 {
		return 0
	}
	return b.data[4]
}

// NumberOfPacketsLost returns the cumulative number of packets lost,
// as a signed 24-bit value.
func (b ReportBlockView) NumberOfPacketsLost() int32 {
	if len(b.data) < 8 {
		return 0
	}
	v := uint32(b.data[5])<<16 | uint32(b.data[6])<<8 | uint32(b.data[7])
	if v&0x0080_0000 != 0 {
		v |= 0xff00_0000
	}
	return int32(v)
}

// ExtendedHighestSequenceNumberReceived returns the extended highest
// sequence number received from this source.
func (b ReportBlockView) ExtendedHighestSequenceNumberReceived() uint32 {
	if len(b.data) < 12 {
		return 0
	}
	return binary.BigEndian.Uint32(b.data[8:12])
}

// InterArrivalJitter returns the estimate of statistical variance of
// RTP packet interarrival time.
func (b ReportBlockView) InterArrivalJitter() uint32 {
	if len(b.data) < 16 {
		return 0
	}
	return binary.BigEndian.Uint32(b.data[12:16])
}

// LastSRTimestamp returns the middle 32 bits of the NTP timestamp of
// the last sender report received from this source.
func (b ReportBlockView) LastSRTimestamp() NTPTimestamp {
	if len(b.data) < 20 {
		return NTPTimestamp{}
	}
	return NTPFromCompact(binary.BigEndian.Uint32(b.data[16:20]))
}

// DelaySinceLastSR returns the delay, in units of 1/65536 seconds,
// since the last sender report was received from this source.
func (b ReportBlockView) DelaySinceLastSR() uint32 {
	if len(b.data) < 24 {
		return 0
	}
	return binary.BigEndian.Uint32(b.data[20:24])
}

// Data returns the raw report block bytes.
func (b ReportBlockView) Data() []byte { return b.data }

// Size returns the size of the report block in bytes.
func (b ReportBlockView) Size() int { return len(b.data) }
