// Package socketslot implements the shared SocketSlot abstraction used
// by both the receiver and sender slot tables (spec §3 Entity:
// SocketSlot, §4.9/§4.10): one UDP socket per listening port, shared by
// every reader stream bound to that port, with refcounted multicast
// group membership so the process joins a given (group, interface,
// port) exactly once.
package socketslot

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/higebu/netfd"
	"github.com/ravennakit-go/aoipcore/aoierr"
	"github.com/ravennakit-go/aoipcore/spinlock"
)

type groupKey struct {
	ifaceIndex int
	group      netip.Addr
}

// Slot owns one UDP socket bound to a single port, reused by every
// stream listening on that port. Protected by its own RW spinlock per
// spec's SocketSlot entity: control threads take the exclusive lock to
// reconfigure group membership, the network thread takes the shared
// lock to poll it.
type Slot struct {
	lock spinlock.RWSpinlock

	port int
	conn *net.UDPConn
	pc   *ipv4.PacketConn

	groups map[groupKey]int // refcount per (interface, multicast group)
	refs   int              // number of streams (readers) using this port
	closed bool
}

// Port returns the UDP port this slot is bound to.
func (s *Slot) Port() int { return s.port }

// Conn returns the underlying UDP connection for reads/writes. Callers
// on the network thread must hold the shared lock (LockShared) while
// using it.
func (s *Slot) Conn() *net.UDPConn { return s.conn }

// PacketConn returns the ipv4.PacketConn wrapper used for
// destination-address control messages and multicast membership.
func (s *Slot) PacketConn() *ipv4.PacketConn { return s.pc }

// LockShared acquires the slot's shared (reader) lock, for use by the
// network thread. Returns false if the bounded spin was exhausted.
func (s *Slot) LockShared() bool { return s.lock.LockShared() }

// UnlockShared releases a shared lock.
func (s *Slot) UnlockShared() { s.lock.UnlockShared() }

// LockExclusive acquires the slot's exclusive (control) lock.
func (s *Slot) LockExclusive() bool { return s.lock.LockExclusive() }

// UnlockExclusive releases an exclusive lock.
func (s *Slot) UnlockExclusive() { s.lock.UnlockExclusive() }

// JoinGroup joins the given multicast group on the given interface, if
// this is the first stream to request that (interface, group) pair on
// this slot. Must be called while holding the exclusive lock.
func (s *Slot) JoinGroup(iface *net.Interface, group netip.Addr) error {
	key := groupKey{ifaceIndex: ifaceIndex(iface), group: group}
	if s.groups[key] > 0 {
		s.groups[key]++
		return nil
	}
	if err := s.pc.JoinGroup(iface, &net.UDPAddr{IP: group.AsSlice()}); err != nil {
		return fmt.Errorf("%w: join group %s on %v: %v", aoierr.ErrMulticastJoinFailed, group, iface, err)
	}
	s.groups[key] = 1
	return nil
}

// LeaveGroup decrements the refcount for (interface, group) and leaves
// the group when it reaches zero. Must be called while holding the
// exclusive lock.
func (s *Slot) LeaveGroup(iface *net.Interface, group netip.Addr) error {
	key := groupKey{ifaceIndex: ifaceIndex(iface), group: group}
	if s.groups[key] == 0 {
		return nil
	}
	s.groups[key]--
	if s.groups[key] > 0 {
		return nil
	}
	delete(s.groups, key)
	if err := s.pc.LeaveGroup(iface, &net.UDPAddr{IP: group.AsSlice()}); err != nil {
		return fmt.Errorf("leave group %s on %v: %w", group, iface, err)
	}
	return nil
}

func ifaceIndex(iface *net.Interface) int {
	if iface == nil {
		return 0
	}
	return iface.Index
}

// Pool is the process-wide table of SocketSlots, keyed by port. All
// readers listening on the same port share one entry.
type Pool struct {
	mu    sync.Mutex
	slots map[int]*Slot
}

// NewPool constructs an empty socket slot pool.
func NewPool() *Pool {
	return &Pool{slots: make(map[int]*Slot)}
}

// Acquire returns the Slot bound to port, creating and binding it (with
// SO_REUSEADDR and destination-address recovery enabled) if it doesn't
// already exist, and increments its stream refcount.
func (p *Pool) Acquire(port int) (*Slot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if slot, ok := p.slots[port]; ok {
		slot.refs++
		return slot, nil
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
		},
	}

	packetConn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("%w: port %d: %v", aoierr.ErrSocketBindFailed, port, err)
	}
	udpConn := packetConn.(*net.UDPConn)

	if addr, ok := udpConn.LocalAddr().(*net.UDPAddr); ok {
		port = addr.Port
	}

	if fd, err := netfd.GetFd(udpConn); err == nil {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_TIMESTAMPNS, 1)
	}

	pc := ipv4.NewPacketConn(udpConn)
	_ = pc.SetControlMessage(ipv4.FlagDst|ipv4.FlagInterface, true)

	slot := &Slot{
		port:   port,
		conn:   udpConn,
		pc:     pc,
		groups: make(map[groupKey]int),
		refs:   1,
	}
	p.slots[port] = slot
	return slot, nil
}

// Slots returns every currently open SocketSlot, for the network
// thread's per-iteration poll (spec §4.14 step 1: "for each
// SocketSlot...").
func (p *Pool) Slots() []*Slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Slot, 0, len(p.slots))
	for _, slot := range p.slots {
		out = append(out, slot)
	}
	return out
}

// Release decrements the stream refcount for port's slot and closes the
// underlying socket once no stream references it.
func (p *Pool) Release(port int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.slots[port]
	if !ok {
		return nil
	}
	slot.refs--
	if slot.refs > 0 {
		return nil
	}
	delete(p.slots, port)
	slot.closed = true
	return slot.conn.Close()
}
