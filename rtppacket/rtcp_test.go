package rtppacket_test

import (
	"testing"

	"github.com/pion/rtcp"
	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/rtppacket"
)

func TestRTCPPacketViewParsesSenderReport(t *testing.T) {
	pionSR := &rtcp.SenderReport{
		SSRC:        0x01020304,
		NTPTime:     (uint64(0xAABBCCDD) << 32) | 0x11223344,
		RTPTime:     999,
		PacketCount: 10,
		OctetCount:  2000,
		Reports: []rtcp.ReceptionReport{
			{
				SSRC:               0xF00D,
				FractionLost:       5,
				TotalLost:          7,
				LastSequenceNumber: 123,
				Jitter:             42,
				LastSenderReport:   0xAABBCCDD,
				Delay:              17,
			},
		},
	}

	buf, err := pionSR.Marshal()
	require.NoError(t, err)

	view := rtppacket.NewRTCPPacketView(buf)
	require.True(t, view.Validate())
	require.Equal(t, rtppacket.RTCPSenderReport, view.Type())
	require.Equal(t, uint32(0x01020304), view.SSRC())
	require.Equal(t, uint32(0xAABBCCDD), view.NTPTimestamp().Integer)
	require.Equal(t, uint32(0x11223344), view.NTPTimestamp().Fraction)
	require.Equal(t, uint32(999), view.RTPTimestamp())
	require.Equal(t, uint32(10), view.PacketCount())
	require.Equal(t, uint32(2000), view.OctetCount())
	require.Equal(t, uint8(1), view.ReceptionReportCount())

	rb := view.ReportBlock(0)
	require.True(t, rb.Validate())
	require.Equal(t, uint32(0xF00D), rb.SSRC())
	require.Equal(t, uint8(5), rb.FractionLost())
	require.Equal(t, int32(7), rb.NumberOfPacketsLost())
	require.Equal(t, uint32(123), rb.ExtendedHighestSequenceNumberReceived())
	require.Equal(t, uint32(42), rb.InterArrivalJitter())
	require.Equal(t, uint32(17), rb.DelaySinceLastSR())
}

func TestRTCPPacketViewWalksCompoundPacket(t *testing.T) {
	sr := &rtcp.SenderReport{SSRC: 1}
	bye := &rtcp.Goodbye{Sources: []uint32{1}}

	srBuf, err := sr.Marshal()
	require.NoError(t, err)
	byeBuf, err := bye.Marshal()
	require.NoError(t, err)

	compound := append(append([]byte{}, srBuf...), byeBuf...)

	view := rtppacket.NewRTCPPacketView(compound)
	require.True(t, view.Validate())
	require.Equal(t, rtppacket.RTCPSenderReport, view.Type())

	next := view.NextPacket()
	require.Equal(t, rtppacket.RTCPBye, next.Type())
}

func TestRTCPPacketViewRejectsTooShortSenderReport(t *testing.T) {
	// Header claims sender_report type but body is truncated.
	buf := []byte{0x80, 200, 0x00, 0x01, 0, 0, 0, 1}
	view := rtppacket.NewRTCPPacketView(buf)
	require.False(t, view.Validate())
}
