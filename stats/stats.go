// Package stats implements component C7: sliding-window RTP packet
// statistics keyed by sequence number. A fixed-size window of per-slot
// receive counters tracks dropped, duplicate, out-of-order and too-late
// packets as they age out of the window; TotalCounts accumulates these
// once a slot has fully aged out, while WindowCounts reports the live
// (not yet finalized) state of the current window.
package stats

import "github.com/ravennakit-go/aoipcore/wrapping"

// Counters tallies packet outcomes.
type Counters struct {
	OutOfOrder uint32
	Duplicates uint32
	Dropped    uint32
	TooLate    uint32
	TooOld     uint32
}

type packetRecord struct {
	timesReceived   uint16
	timesOutOfOrder uint16
	timesTooLate    uint16
}

// PacketStats collects statistics over a sliding window of RTP sequence
// numbers. The zero value has no window; call Reset with a window size
// before use.
type PacketStats struct {
	hasMostRecent bool
	mostRecent    wrapping.Uint16

	window   []packetRecord
	head     int
	size     int
	capacity int

	total Counters
}

// NewPacketStats constructs a PacketStats with the given window size in
// packets. windowSize must not exceed 0xffff, since sequence numbers
// wrap at that point.
func NewPacketStats(windowSize int) *PacketStats {
	s := &PacketStats{}
	s.Reset(windowSize)
	return s
}

// Reset clears all state. If windowSize >= 0 the window is also resized
// and emptied; pass -1 to keep the existing window capacity.
func (s *PacketStats) Reset(windowSize int) {
	if windowSize >= 0 {
		s.capacity = windowSize
		s.window = make([]packetRecord, windowSize)
		s.head = 0
		s.size = 0
	}
	s.hasMostRecent = false
	s.mostRecent = 0
	s.total = Counters{}
}

// Update records the arrival of a packet with the given sequence
// number. It returns the accumulated total counts and true whenever
// they change (a slot aged out of the window) or a too-old packet was
// observed; otherwise it returns the zero Counters and false.
func (s *PacketStats) Update(sequenceNumber uint16) (Counters, bool) {
	seq := wrapping.Uint16(sequenceNumber)

	if !s.hasMostRecent {
		s.mostRecent = seq.Add(-1)
		s.hasMostRecent = true
	}

	threshold := s.mostRecent.Add(-int32(s.size))
	if seq.LessOrEqual(threshold) {
		s.total.TooOld++
		return s.total, true
	}

	if s.capacity == 0 {
		return Counters{}, false
	}

	shouldReturnTotal := false

	if s.mostRecent.Less(seq) {
		diff := int(s.mostRecent.Distance(seq))
		s.mostRecent = seq
		for i := 0; i < diff; i++ {
			if s.full() {
				if s.collectPacket() {
					shouldReturnTotal = true
				}
			}
			s.pushBack(packetRecord{})
		}
		s.back().timesReceived++
	} else {
		offset := int(seq.Distance(s.mostRecent))
		idx := s.size - 1 - offset
		if idx >= 0 && idx < s.size {
			rec := s.at(idx)
			rec.timesOutOfOrder++
			rec.timesReceived++
		}
	}

	if shouldReturnTotal {
		return s.total, true
	}
	return Counters{}, false
}

// MarkPacketTooLate records that the packet with the given sequence
// number arrived too late to be used by a consumer. A no-op if no
// packet has arrived yet, if sequenceNumber is newer than the most
// recently arrived packet, or if it has already aged out of the window.
func (s *PacketStats) MarkPacketTooLate(sequenceNumber uint16) {
	if !s.hasMostRecent {
		return
	}
	seq := wrapping.Uint16(sequenceNumber)
	if s.mostRecent.Less(seq) {
		return
	}
	threshold := s.mostRecent.Add(-int32(s.size))
	if seq.LessOrEqual(threshold) {
		return
	}
	offset := int(seq.Distance(s.mostRecent))
	idx := s.size - 1 - offset
	if idx >= 0 && idx < s.size {
		s.at(idx).timesTooLate++
	}
}

// WindowCounts reports dropped/duplicate/out-of-order/too-late counts
// for slots currently in the window (not yet finalized into
// TotalCounts). TooOld is always zero here, since a too-old packet
// never occupies a window slot.
func (s *PacketStats) WindowCounts() Counters {
	if s.size == 0 || !s.hasMostRecent {
		return Counters{}
	}
	var result Counters
	for i := 0; i < s.size; i++ {
		rec := s.at(i)
		switch {
		case rec.timesReceived == 0:
			result.Dropped++
		case rec.timesReceived > 1:
			result.Duplicates += uint32(rec.timesReceived - 1)
		}
		result.OutOfOrder += uint32(rec.timesOutOfOrder)
		result.TooLate += uint32(rec.timesTooLate)
	}
	return result
}

// TotalCounts reports the cumulative counts of packets that have fully
// aged out of the window, plus too-old packets observed at any time.
func (s *PacketStats) TotalCounts() Counters { return s.total }

// Count returns the number of slots currently occupied in the window.
func (s *PacketStats) Count() int { return s.size }

func (s *PacketStats) full() bool { return s.size == s.capacity }

func (s *PacketStats) at(i int) *packetRecord {
	return &s.window[(s.head+i)%s.capacity]
}

func (s *PacketStats) back() *packetRecord { return s.at(s.size - 1) }

func (s *PacketStats) pushBack(rec packetRecord) {
	idx := (s.head + s.size) % s.capacity
	s.window[idx] = rec
	s.size++
}

func (s *PacketStats) collectPacket() bool {
	rec := s.window[s.head]
	s.window[s.head] = packetRecord{}
	s.head = (s.head + 1) % s.capacity
	s.size--

	changed := false
	if rec.timesReceived == 0 {
		changed = true
		s.total.Dropped++
	}
	if rec.timesReceived > 1 {
		changed = true
		s.total.Duplicates += uint32(rec.timesReceived - 1)
	}
	if rec.timesOutOfOrder > 0 {
		changed = true
		s.total.OutOfOrder += uint32(rec.timesOutOfOrder)
	}
	if rec.timesTooLate > 0 {
		changed = true
		s.total.TooLate += uint32(rec.timesTooLate)
	}
	return changed
}
