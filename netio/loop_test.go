package netio

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/audioformat"
	"github.com/ravennakit-go/aoipcore/receiver"
	"github.com/ravennakit-go/aoipcore/rtppacket"
	"github.com/ravennakit-go/aoipcore/sender"
	"github.com/ravennakit-go/aoipcore/socketslot"
)

func stereoS16BEFormat() audioformat.Format {
	return audioformat.Format{
		ByteOrder:    audioformat.BigEndian,
		Encoding:     audioformat.PCMS16,
		Ordering:     audioformat.Interleaved,
		SampleRateHz: 48000,
		NumChannels:  2,
	}
}

func primarySession() socketslot.Session {
	return socketslot.Session{
		ConnectionAddress: netip.MustParseAddr("239.1.15.52"),
		RTPPort:           5004,
		RTCPPort:          5005,
	}
}

func newTestReader() *receiver.Reader {
	params := receiver.ReaderParams{
		AudioFormat: stereoS16BEFormat(),
		Primary: receiver.StreamParams{
			Session:          primarySession(),
			PacketTimeFrames: 48,
		},
	}
	return receiver.NewReader(1, params)
}

func encodePacket(t *testing.T, seq uint16, ts uint32, payload []byte) []byte {
	t.Helper()
	builder := rtppacket.PacketBuilder{
		PayloadType:    98,
		SequenceNumber: seq,
		Timestamp:      ts,
		SSRC:           0x52,
		Payload:        payload,
	}
	buf := make([]byte, 12+len(payload))
	n := builder.Encode(buf)
	require.Greater(t, n, 0)
	return buf[:n]
}

// A datagram addressed to the reader's session on a source the filter
// accepts is delivered to the matching stream context.
func TestDispatchToReadersDeliversMatchingPacket(t *testing.T) {
	r := newTestReader()
	primary := r.Stream(receiver.RankPrimary)

	payload := make([]byte, 192)
	raw := encodePacket(t, 100, 1000, payload)
	view := rtppacket.NewPacketView(raw)
	require.True(t, view.Validate())

	session := primarySession()
	srcAddr := netip.MustParseAddr("10.0.0.9")
	matched := dispatchToReaders([]*receiver.Reader{r}, 1_000_000, session.ConnectionAddress, session.RTPPort, srcAddr, view)
	require.True(t, matched)
	require.Equal(t, receiver.StateReceiving, primary.State())

	ts, ok := r.ReadDataRealtime(make([]byte, 192), nil, nil)
	require.True(t, ok)
	require.Equal(t, uint32(1000), ts)
}

// A datagram to a different destination port matches no stream.
func TestDispatchToReadersIgnoresWrongPort(t *testing.T) {
	r := newTestReader()
	payload := make([]byte, 192)
	raw := encodePacket(t, 100, 1000, payload)
	view := rtppacket.NewPacketView(raw)

	session := primarySession()
	srcAddr := netip.MustParseAddr("10.0.0.9")
	matched := dispatchToReaders([]*receiver.Reader{r}, 1_000_000, session.ConnectionAddress, session.RTPPort+1, srcAddr, view)
	require.False(t, matched)
	require.Equal(t, receiver.StateInactive, r.Stream(receiver.RankPrimary).State())
}

// Step 4: a stream with no traffic for longer than the timeout is
// marked inactive, and a status snapshot is published for its reader.
func TestRunMaintenanceForMarksInactiveAndPublishes(t *testing.T) {
	r := newTestReader()
	primary := r.Stream(receiver.RankPrimary)

	payload := make([]byte, 192)
	primary.OnPacketMatched(1_000_000, receiver.PacketBuffer{Timestamp: 1000, Sequence: 1, Length: len(payload)})
	require.Equal(t, receiver.StateReceiving, primary.State())

	var published []receiver.ReaderStatus
	runMaintenanceFor([]*receiver.Reader{r}, 3_000_000_000, 1000, func(s receiver.ReaderStatus) {
		published = append(published, s)
	})

	require.Equal(t, receiver.StateInactive, primary.State())
	require.Len(t, published, 1)
	require.Equal(t, r.ID(), published[0].ID)
}

// Step 4: too-old sequence numbers drained from a stream feed its
// packet statistics' too-late counter.
func TestRunMaintenanceForDrainsTooOldIntoStats(t *testing.T) {
	r := newTestReader()
	primary := r.Stream(receiver.RankPrimary)

	primary.OnPacketMatched(1_000_000, receiver.PacketBuffer{Timestamp: 1000, Sequence: 50, Length: 192})
	primary.PushTooOld(50)

	runMaintenanceFor([]*receiver.Reader{r}, 1_000_000, 1000, nil)

	require.EqualValues(t, 1, primary.Stats().WindowCounts().TooLate)
}

// Step 5: draining writers pushes every pending packet onto their
// destinations (here, both disabled, so send is a no-op but the queue
// still empties).
func TestDrainOutgoingForEmptiesEveryWriter(t *testing.T) {
	w, err := sender.NewWriter(1, sender.WriterParams{
		AudioFormat:      stereoS16BEFormat(),
		PayloadType:      98,
		PacketTimeFrames: 48,
	})
	require.NoError(t, err)

	buf := make([]byte, 192)
	require.True(t, w.SendDataRealtime(buf, 5000))
	require.Equal(t, 1, w.PendingOutgoing())

	drainOutgoingFor([]*sender.Writer{w})
	require.Equal(t, 0, w.PendingOutgoing())
}

func TestStatsHubPublishAndGet(t *testing.T) {
	hub := NewStatsHub()
	_, ok := hub.Get(1)
	require.False(t, ok)

	hub.Publish(receiver.ReaderStatus{ID: 1})
	status, ok := hub.Get(1)
	require.True(t, ok)
	require.Equal(t, uint64(1), status.ID)

	_, ok = hub.Get(1)
	require.False(t, ok, "second Get with no intervening Publish observes nothing new")
}
