package netio

import (
	"net/netip"

	"github.com/ravennakit-go/aoipcore/receiver"
	"github.com/ravennakit-go/aoipcore/rtppacket"
)

// dispatch implements spec §4.14 steps 2-3 for one received datagram:
// parse it as an RTP packet, and offer it to every stream context of
// every reader until one accepts it.
func (l *Loop) dispatch(nowNs int64, dstAddr netip.Addr, dstPort uint16, srcAddr netip.Addr, raw []byte) {
	view := rtppacket.NewPacketView(raw)
	if !view.Validate() {
		l.invalidPackets.Add(1)
		return
	}

	if dispatchToReaders(l.readers.Readers(), nowNs, dstAddr, dstPort, srcAddr, view) {
		return
	}
	l.unmatchedPackets.Add(1)
}

// dispatchToReaders is the pure matching/delivery logic, factored out
// of Loop.dispatch so it can be exercised directly with synthetic
// packets and addresses without a real socket round-trip.
func dispatchToReaders(readers []*receiver.Reader, nowNs int64, dstAddr netip.Addr, dstPort uint16, srcAddr netip.Addr, view rtppacket.PacketView) bool {
	for _, r := range readers {
		if !r.LockShared() {
			continue
		}
		matched := dispatchToReader(r, nowNs, dstAddr, dstPort, srcAddr, view)
		r.UnlockShared()
		if matched {
			return true
		}
	}
	return false
}

func dispatchToReader(r *receiver.Reader, nowNs int64, dstAddr netip.Addr, dstPort uint16, srcAddr netip.Addr, view rtppacket.PacketView) bool {
	for rank := 0; rank < 2; rank++ {
		s := r.Stream(rank)
		if s.Empty() {
			continue
		}
		if !s.AcceptsSource(dstAddr, dstPort, srcAddr) {
			continue
		}

		payload := view.PayloadData()
		if len(payload) > receiver.MaxPayload {
			continue
		}

		var pb receiver.PacketBuffer
		pb.Timestamp = view.Timestamp()
		pb.Sequence = view.SequenceNumber()
		pb.Length = len(payload)
		copy(pb.Data[:], payload)

		s.OnPacketMatched(nowNs, pb)
		return true
	}
	return false
}
