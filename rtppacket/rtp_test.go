package rtppacket_test

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/rtppacket"
)

func TestPacketBuilderEncodeDecodeRoundTrip(t *testing.T) {
	b := rtppacket.PacketBuilder{
		Marker:         true,
		PayloadType:    97,
		SequenceNumber: 1234,
		Timestamp:      0xDEADBEEF,
		SSRC:           0x11223344,
		CSRC:           []uint32{1, 2},
		Payload:        []byte{1, 2, 3, 4, 5, 6},
	}

	buf := make([]byte, 64)
	n := b.Encode(buf)
	require.Greater(t, n, 0)

	view := rtppacket.NewPacketView(buf[:n])
	require.True(t, view.Validate())
	require.Equal(t, uint8(2), view.Version())
	require.True(t, view.MarkerBit())
	require.Equal(t, uint8(97), view.PayloadType())
	require.Equal(t, uint16(1234), view.SequenceNumber())
	require.Equal(t, uint32(0xDEADBEEF), view.Timestamp())
	require.Equal(t, uint32(0x11223344), view.SSRC())
	require.Equal(t, uint32(2), view.CSRCCount())
	require.Equal(t, uint32(1), view.CSRC(0))
	require.Equal(t, uint32(2), view.CSRC(1))
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, view.PayloadData())
}

// Cross-validates our wire encoding against pion/rtp's independent
// implementation of RFC 3550.
func TestPacketViewMatchesPionRTPDecoding(t *testing.T) {
	b := rtppacket.PacketBuilder{
		Marker:         false,
		PayloadType:    98,
		SequenceNumber: 42,
		Timestamp:      100000,
		SSRC:           0xCAFEBABE,
		Payload:        []byte{9, 9, 9, 9},
	}
	buf := make([]byte, 32)
	n := b.Encode(buf)
	require.Greater(t, n, 0)

	var pkt rtp.Packet
	require.NoError(t, pkt.Unmarshal(buf[:n]))

	view := rtppacket.NewPacketView(buf[:n])
	require.Equal(t, pkt.Version, view.Version())
	require.Equal(t, pkt.Marker, view.MarkerBit())
	require.Equal(t, pkt.PayloadType, view.PayloadType())
	require.Equal(t, pkt.SequenceNumber, view.SequenceNumber())
	require.Equal(t, pkt.Timestamp, view.Timestamp())
	require.Equal(t, pkt.SSRC, view.SSRC())
	require.Equal(t, []byte(pkt.Payload), view.PayloadData())
}

func TestPacketViewRejectsShortData(t *testing.T) {
	view := rtppacket.NewPacketView([]byte{0x80, 0x61})
	require.False(t, view.Validate())
}

func TestPacketViewHeaderExtension(t *testing.T) {
	// Manually crafted packet with extension bit set: 12-byte fixed
	// header + 4-byte extension header (profile=0xBEDE, length=1 word)
	// + 4 bytes of extension data.
	buf := []byte{
		0x90, 0x60, 0x00, 0x01, // V=2,P=0,X=1,CC=0 | M=0,PT=96 | seq=1
		0x00, 0x00, 0x00, 0x01, // timestamp
		0x00, 0x00, 0x00, 0x01, // ssrc
		0xBE, 0xDE, 0x00, 0x01, // profile, length=1
		0x11, 0x22, 0x33, 0x44, // extension data
		0xAA, 0xBB, // payload
	}
	view := rtppacket.NewPacketView(buf)
	require.True(t, view.Extension())
	require.Equal(t, uint16(0xBEDE), view.HeaderExtensionDefinedByProfile())
	require.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, view.HeaderExtensionData())
	require.Equal(t, []byte{0xAA, 0xBB}, view.PayloadData())
}
