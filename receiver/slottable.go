package receiver

import (
	"net"
	"sync"

	"github.com/ravennakit-go/aoipcore/aoierr"
	"github.com/ravennakit-go/aoipcore/socketslot"
)

// MaxNumReaders is the capacity of the reader slot table (spec §6
// k_max_num_readers).
const MaxNumReaders = 16

// Interfaces names the local network interface each of a Reader's up to
// two streams should join its multicast group on, passed alongside
// ReaderParams to AddReader (spec §4.9: "add_reader(id, params,
// interfaces)"). A nil entry means "default/any interface" and is valid
// for unicast sessions.
type Interfaces struct {
	Primary   *net.Interface
	Secondary *net.Interface
}

// Table is the fixed-capacity Reader slot table (spec §4.9, component
// C9). It owns a socketslot.Pool shared with the network thread and any
// sender slot table in the same process.
type Table struct {
	mu      sync.Mutex
	pool    *socketslot.Pool
	readers [MaxNumReaders]*Reader
	byID    map[uint64]int
}

// NewTable constructs an empty reader slot table backed by pool.
func NewTable(pool *socketslot.Pool) *Table {
	return &Table{pool: pool, byID: make(map[uint64]int)}
}

// Readers returns every currently occupied reader slot, for iteration by
// the network thread loop (spec §4.14 step 3) and observers.
func (t *Table) Readers() []*Reader {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Reader, 0, len(t.byID))
	for _, idx := range t.byID {
		out = append(out, t.readers[idx])
	}
	return out
}

// Get returns the reader with the given id, or nil if none exists.
func (t *Table) Get(id uint64) *Reader {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.byID[id]
	if !ok {
		return nil
	}
	return t.readers[idx]
}

// AddReader locates a free slot, builds a Reader from params, and wires
// up its active streams' sockets and multicast memberships (spec §4.9).
// On any failure the table is left unchanged.
func (t *Table) AddReader(id uint64, params ReaderParams, interfaces Interfaces) (*Reader, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.byID[id]; exists {
		return nil, aoierr.ErrDuplicateID
	}

	idx := -1
	for i, slot := range t.readers {
		if slot == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, aoierr.ErrSlotTableFull
	}

	if !params.AudioFormat.Validate() {
		return nil, aoierr.ErrInvalidFormat
	}

	r := NewReader(id, params)

	if !params.Primary.empty() {
		if err := t.bindStream(r.primary, interfaces.Primary); err != nil {
			return nil, err
		}
	}
	if !params.Secondary.empty() {
		if err := t.bindStream(r.secondary, interfaces.Secondary); err != nil {
			t.unbindStream(r.primary)
			return nil, err
		}
	}

	t.readers[idx] = r
	t.byID[id] = idx
	return r, nil
}

// bindStream implements spec §4.9 steps 1-2 for a single stream: find or
// open the SocketSlot for its port, then join its multicast group if
// it's the first stream to use this (group, interface, port) tuple.
func (t *Table) bindStream(s *StreamContext, iface *net.Interface) error {
	slot, err := t.pool.Acquire(int(s.Session().RTPPort))
	if err != nil {
		return err
	}
	s.setSocket(slot)
	s.SetBoundInterface(iface)

	if s.Session().IsMulticast() {
		group := s.Session().ConnectionAddress
		if err := slot.JoinGroup(iface, group); err != nil {
			t.pool.Release(int(s.Session().RTPPort))
			s.setSocket(nil)
			return err
		}
	}
	return nil
}

// unbindStream is the inverse of bindStream, used both by RemoveReader
// and to unwind a partially-completed AddReader.
func (t *Table) unbindStream(s *StreamContext) {
	if s.Empty() || s.Socket() == nil {
		return
	}
	if s.Session().IsMulticast() {
		_ = s.Socket().LeaveGroup(s.BoundInterface(), s.Session().ConnectionAddress)
	}
	_ = t.pool.Release(int(s.Session().RTPPort))
	s.setSocket(nil)
}

// RemoveReader exclusive-locks the reader's slot, drops its multicast
// memberships, releases its socket slots, and returns the slot to the
// free pool (spec §4.9).
func (t *Table) RemoveReader(id uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.byID[id]
	if !ok {
		return aoierr.ErrNotFound
	}
	r := t.readers[idx]

	if !r.LockExclusive() {
		return aoierr.ErrLockUpperBoundReached
	}
	defer r.UnlockExclusive()

	t.unbindStream(r.primary)
	t.unbindStream(r.secondary)
	r.reset()

	delete(t.byID, id)
	t.readers[idx] = nil
	return nil
}

// SetInterfaces atomically re-subscribes a reader's streams to new
// interfaces, leaving the prior group membership (if this was the last
// user) and joining the new one (if this is the first), per stream (spec
// §4.9).
func (t *Table) SetInterfaces(id uint64, interfaces Interfaces) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.byID[id]
	if !ok {
		return aoierr.ErrNotFound
	}
	r := t.readers[idx]

	if !r.LockExclusive() {
		return aoierr.ErrLockUpperBoundReached
	}
	defer r.UnlockExclusive()

	if err := t.rebindInterface(r.primary, interfaces.Primary); err != nil {
		return err
	}
	return t.rebindInterface(r.secondary, interfaces.Secondary)
}

func (t *Table) rebindInterface(s *StreamContext, newIface *net.Interface) error {
	if s.Empty() || !s.Session().IsMulticast() {
		s.SetBoundInterface(newIface)
		return nil
	}
	oldIface := s.BoundInterface()
	if sameInterface(oldIface, newIface) {
		return nil
	}
	group := s.Session().ConnectionAddress
	if s.Socket() != nil {
		if err := s.Socket().LeaveGroup(oldIface, group); err != nil {
			return err
		}
		if err := s.Socket().JoinGroup(newIface, group); err != nil {
			return err
		}
	}
	s.SetBoundInterface(newIface)
	return nil
}

func sameInterface(a, b *net.Interface) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Index == b.Index
}
