// Package netio implements the cross-cutting component described in
// spec §4.14: the single high-priority network thread that ties the
// receiver and sender slot tables to the shared socketslot.Pool. One
// iteration polls every SocketSlot for a datagram, classifies it to a
// (reader, stream) slot, drains each stream's too-old-sequence queue
// into its packet statistics, runs the inactive-timeout watchdog, and
// drains every sender's outgoing queue onto the wire.
package netio

import (
	"context"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"

	"github.com/ravennakit-go/aoipcore/receiver"
	"github.com/ravennakit-go/aoipcore/sender"
	"github.com/ravennakit-go/aoipcore/socketslot"
)

// ReceiveTimeoutMs is the default inactive-stream watchdog threshold
// (spec §6 k_receive_timeout_ms).
const ReceiveTimeoutMs = 1000

// TickInterval is the default cadence of one loop iteration. 1ms is
// below multi-millisecond packet times, but longer than packet times
// under 1ms (a 20-frame packet at 48kHz lasts about 0.42ms); at those
// packet times one iteration spans more than one packet.
const TickInterval = time.Millisecond

// recvBufferSize comfortably holds one Ethernet-MTU RTP datagram (spec
// §6 k_max_payload=1440 plus the 12-byte RTP header).
const recvBufferSize = 1500

// Params configures a Loop.
type Params struct {
	Pool    *socketslot.Pool
	Readers *receiver.Table
	Writers *sender.Table

	// ReceiveTimeoutMs overrides ReceiveTimeoutMs when non-zero.
	ReceiveTimeoutMs int64
	// TickInterval overrides TickInterval when non-zero.
	TickInterval time.Duration

	Logger *zap.Logger
}

// Loop is the network thread (spec §4.14). The zero value is not
// usable; construct with NewLoop.
type Loop struct {
	pool    *socketslot.Pool
	readers *receiver.Table
	writers *sender.Table
	logger  *zap.Logger

	receiveTimeoutMs int64
	tickInterval     time.Duration

	stats *StatsHub

	recvBuf [recvBufferSize]byte

	invalidPackets   atomic.Uint64
	unmatchedPackets atomic.Uint64
}

// NewLoop constructs a Loop from params, applying defaults for any
// zero-valued tunables.
func NewLoop(params Params) *Loop {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeoutMs := params.ReceiveTimeoutMs
	if timeoutMs == 0 {
		timeoutMs = ReceiveTimeoutMs
	}
	interval := params.TickInterval
	if interval == 0 {
		interval = TickInterval
	}
	return &Loop{
		pool:             params.Pool,
		readers:          params.Readers,
		writers:          params.Writers,
		logger:           logger.Named("netio"),
		receiveTimeoutMs: timeoutMs,
		tickInterval:     interval,
		stats:            NewStatsHub(),
	}
}

// Stats returns the hub of per-reader StreamContext status snapshots
// this loop publishes every iteration (spec §5 shared-resource table:
// "Stats snapshot | N publish | C read | Triple buffer").
func (l *Loop) Stats() *StatsHub { return l.stats }

// InvalidPacketCount reports how many received datagrams failed RTP
// validation (spec §7: "invalid RTP packet ... silently dropped with a
// counter increment").
func (l *Loop) InvalidPacketCount() uint64 { return l.invalidPackets.Load() }

// UnmatchedPacketCount reports how many validly-parsed datagrams
// matched no reader stream (spec §7: "unknown destination, source
// filtered out ... silently dropped with a counter increment").
func (l *Loop) UnmatchedPacketCount() uint64 { return l.unmatchedPackets.Load() }

// Run blocks, executing one loop iteration per tick until ctx is
// canceled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.RunOnce(time.Now().UnixNano())
		}
	}
}

// RunOnce executes the five steps of spec §4.14's network thread loop
// once, with nowNs as the current time. Exported directly so tests (and
// callers embedding their own scheduler) can drive iterations
// deterministically without a real ticker.
func (l *Loop) RunOnce(nowNs int64) {
	l.pollSockets(nowNs)
	l.runMaintenance(nowNs)
	l.drainOutgoing()
}

// pollSockets implements steps 1-3: poll every socket slot for one
// pending datagram and dispatch it to matching stream contexts.
func (l *Loop) pollSockets(nowNs int64) {
	for _, slot := range l.pool.Slots() {
		l.pollSlot(slot, nowNs)
	}
}

// pollSlot implements step 1 (try_lock_shared + non-blocking recvfrom)
// and steps 2-3 for whatever a single slot yields this tick. A UDP
// socket has no native "non-blocking" read in the net package; an
// already-elapsed read deadline is the idiomatic Go substitute; its
// Timeout() error is treated identically to EWOULDBLOCK.
func (l *Loop) pollSlot(slot *socketslot.Slot, nowNs int64) {
	if !slot.LockShared() {
		return
	}
	defer slot.UnlockShared()

	conn := slot.Conn()
	if conn == nil {
		return
	}
	if err := conn.SetReadDeadline(time.Now()); err != nil {
		return
	}

	n, cm, srcAddr, err := slot.PacketConn().ReadFrom(l.recvBuf[:])
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return
		}
		return
	}

	dstAddr, ok := controlMessageDst(cm)
	if !ok {
		return
	}
	srcIP, ok := udpAddrToAddr(srcAddr)
	if !ok {
		return
	}

	l.dispatch(nowNs, dstAddr, uint16(slot.Port()), srcIP, l.recvBuf[:n])
}

func controlMessageDst(cm *ipv4.ControlMessage) (netip.Addr, bool) {
	if cm == nil || cm.Dst == nil {
		return netip.Addr{}, false
	}
	addr, ok := netip.AddrFromSlice(cm.Dst.To4())
	return addr, ok
}

func udpAddrToAddr(a net.Addr) (netip.Addr, bool) {
	udpAddr, ok := a.(*net.UDPAddr)
	if !ok || udpAddr == nil {
		return netip.Addr{}, false
	}
	addr, ok := netip.AddrFromSlice(udpAddr.IP.To4())
	return addr, ok
}

// runMaintenance implements step 4: mark streams inactive whose
// watchdog has elapsed, and publish a fresh stats snapshot per reader.
func (l *Loop) runMaintenance(nowNs int64) {
	runMaintenanceFor(l.readers.Readers(), nowNs, l.receiveTimeoutMs, l.stats.Publish)
}

// runMaintenanceFor is the pure step-4 logic, factored out so it can be
// exercised directly against Readers built without a Table/socket pool.
func runMaintenanceFor(readers []*receiver.Reader, nowNs int64, timeoutMs int64, publish func(receiver.ReaderStatus)) {
	for _, r := range readers {
		if !r.LockShared() {
			continue
		}
		for rank := 0; rank < 2; rank++ {
			s := r.Stream(rank)
			if s.Empty() {
				continue
			}
			s.MaintenanceTick(nowNs, timeoutMs)
			s.DrainTooOld(func(seq uint16) { s.Stats().MarkPacketTooLate(seq) })
		}
		if publish != nil {
			publish(r.Status())
		}
		r.UnlockShared()
	}
}

// drainOutgoing implements step 5: drain every writer's outgoing SPSC
// and transmit onto its destinations.
func (l *Loop) drainOutgoing() {
	drainOutgoingFor(l.writers.Writers())
}

// drainOutgoingFor is the pure step-5 logic, factored out so it can be
// exercised directly against Writers built without a Table.
func drainOutgoingFor(writers []*sender.Writer) {
	for _, w := range writers {
		w.SendOutgoingPackets()
	}
}
