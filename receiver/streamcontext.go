package receiver

import (
	"net"
	"net/netip"
	"sync/atomic"

	"github.com/ravennakit-go/aoipcore/socketslot"
	"github.com/ravennakit-go/aoipcore/sourcefilter"
	"github.com/ravennakit-go/aoipcore/stats"
)

// StreamState is one of a StreamContext's three states (spec §4.12).
type StreamState int32

const (
	StateInactive StreamState = iota
	StateReceiving
	StateNoConsumer
)

func (s StreamState) String() string {
	switch s {
	case StateReceiving:
		return "receiving"
	case StateNoConsumer:
		return "no_consumer"
	default:
		return "inactive"
	}
}

// defaultQueueDepth is used for both of a StreamContext's SPSCs absent an
// explicit override; spec §6 names k_buffer_num_packets=20 for the
// sender's outgoing SPSC, and the receive-side queues are sized to match
// since neither the reader nor the too-old-seq path is expected to run
// meaningfully deeper before the audio thread has fallen far enough
// behind that no_consumer is the right outcome anyway.
const defaultQueueDepth = 20

// StreamContext is one of a Reader's (up to two, for ST 2022-7
// redundancy) receive paths (spec §3 Entity: StreamContext).
type StreamContext struct {
	session          socketslot.Session
	filter           *sourcefilter.Filter
	packetTimeFrames int
	boundInterface   *net.Interface

	incoming *packetQueue // network -> audio
	tooOld   *seqQueue    // audio -> network

	packetStats *stats.PacketStats
	interval    *intervalEstimator

	prevPacketTimeNs atomic.Int64
	state            atomic.Int32

	socket *socketslot.Slot
}

// newStreamContext constructs an empty, inactive StreamContext. A
// caller-supplied session with !Valid() denotes an "empty" stream slot
// (spec §3: "either may be empty").
func newStreamContext(session socketslot.Session, filter *sourcefilter.Filter, packetTimeFrames int, statsWindow int) *StreamContext {
	if filter == nil {
		filter = sourcefilter.New(session.ConnectionAddress)
	}
	return &StreamContext{
		session:          session,
		filter:           filter,
		packetTimeFrames: packetTimeFrames,
		incoming:         newPacketQueue(defaultQueueDepth),
		tooOld:           newSeqQueue(defaultQueueDepth),
		packetStats:      stats.NewPacketStats(statsWindow),
		interval:         newIntervalEstimator(),
	}
}

// Empty reports whether this stream slot is unused.
func (c *StreamContext) Empty() bool { return !c.session.Valid() }

func (c *StreamContext) Session() socketslot.Session { return c.session }

func (c *StreamContext) SourceFilter() *sourcefilter.Filter { return c.filter }

func (c *StreamContext) PacketTimeFrames() int { return c.packetTimeFrames }

func (c *StreamContext) BoundInterface() *net.Interface { return c.boundInterface }

func (c *StreamContext) SetBoundInterface(iface *net.Interface) { c.boundInterface = iface }

func (c *StreamContext) Socket() *socketslot.Slot { return c.socket }

func (c *StreamContext) setSocket(slot *socketslot.Slot) { c.socket = slot }

func (c *StreamContext) State() StreamState { return StreamState(c.state.Load()) }

func (c *StreamContext) setState(s StreamState) { c.state.Store(int32(s)) }

// Stats returns the sliding-window packet statistics for this stream.
func (c *StreamContext) Stats() *stats.PacketStats { return c.packetStats }

// Jitter returns the current inter-arrival jitter estimate in seconds.
func (c *StreamContext) Jitter() float64 { return c.interval.Jitter() }

// AcceptsSource reports whether a packet from srcAddress, delivered to
// (dstAddress, dstPort), should be accepted by this stream's session and
// source filter (spec §4.14 step 3: "session.connection_address ==
// dst.addr && session.rtp_port == dst.port && filter.accepts(...)").
func (c *StreamContext) AcceptsSource(dstAddress netip.Addr, dstPort uint16, srcAddress netip.Addr) bool {
	if !dstAddress.IsValid() || dstAddress != c.session.ConnectionAddress {
		return false
	}
	if dstPort != c.session.RTPPort {
		return false
	}
	return c.filter.IsValidSource(dstAddress, srcAddress)
}

// OnPacketMatched is invoked by the network thread when an incoming
// packet matches this stream. It updates the inactive-timeout watchdog
// and attempts to enqueue the packet; on queue-full it latches
// no_consumer (spec §4.14 step 3, §4.12).
func (c *StreamContext) OnPacketMatched(nowNs int64, pb PacketBuffer) {
	c.prevPacketTimeNs.Store(nowNs)
	c.interval.Observe(nowNs)
	c.packetStats.Update(pb.Sequence)

	if c.State() == StateNoConsumer {
		return
	}
	if c.incoming.Push(pb) {
		c.setState(StateReceiving)
	} else {
		c.setState(StateNoConsumer)
	}
}

// MaintenanceTick marks the stream inactive if no packet has matched
// within timeoutMs of nowNs (spec §4.14 step 4). A no-op while latched
// no_consumer; that state is only cleared by the audio thread.
func (c *StreamContext) MaintenanceTick(nowNs int64, timeoutMs int64) {
	if c.State() == StateNoConsumer {
		return
	}
	last := c.prevPacketTimeNs.Load()
	if last == 0 {
		return
	}
	if nowNs-last >= timeoutMs*int64(1e6) {
		c.setState(StateInactive)
	}
}

// DrainAllIncoming pops every currently queued packet without writing it
// to the ring buffer, resets the jitter estimator, and clears the
// no_consumer latch. This is the audio thread's recovery pass from spec
// §4.12/E4: "the audio thread clears the state on its next maintenance
// pass by popping everything."
func (c *StreamContext) DrainAllIncoming() int {
	n := c.incoming.Size()
	c.incoming.PopAll()
	c.interval.Reset()
	c.setState(StateInactive)
	return n
}

// PushTooOld records a sequence number as too-old/too-late to the
// network thread (spec §4.11 step 2, §4.14 step 3).
func (c *StreamContext) PushTooOld(seq uint16) bool { return c.tooOld.Push(seq) }

// DrainTooOld pops every queued too-old sequence number, invoking fn for
// each (spec §4.14 step 3: "drain packets_too_old and update packet
// statistics").
func (c *StreamContext) DrainTooOld(fn func(seq uint16)) {
	for {
		seq, ok := c.tooOld.Pop()
		if !ok {
			return
		}
		fn(seq)
	}
}

// popIncoming is used internally by the jitter engine's drain step.
func (c *StreamContext) popIncoming() (PacketBuffer, bool) { return c.incoming.Pop() }

// incomingLen reports how many packets are queued to be drained; the
// jitter engine drains at most this many per cycle (spec §4.11 step 2).
func (c *StreamContext) incomingLen() int { return c.incoming.Size() }

// reset clears this stream context back to an unused, empty slot.
func (c *StreamContext) reset() {
	c.session = socketslot.Session{}
	c.filter = sourcefilter.New(netip.Addr{})
	c.packetTimeFrames = 0
	c.boundInterface = nil
	c.incoming.Reset()
	c.tooOld.Reset()
	c.packetStats.Reset(-1)
	c.interval.Reset()
	c.prevPacketTimeNs.Store(0)
	c.setState(StateInactive)
	c.socket = nil
}
