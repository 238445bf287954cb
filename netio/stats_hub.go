package netio

import (
	"sync"

	"github.com/ravennakit-go/aoipcore/receiver"
	"github.com/ravennakit-go/aoipcore/triplebuffer"
)

// StatsHub is the network thread's per-reader publication point for
// StreamContext status snapshots (spec §5: "Stats snapshot | N publish
// | C read | Triple buffer"). One triplebuffer.Buffer per reader ID,
// created lazily on first publish so observers never need to
// pre-register a reader before it exists.
type StatsHub struct {
	mu      sync.Mutex
	buffers map[uint64]*triplebuffer.Buffer[receiver.ReaderStatus]
}

// NewStatsHub constructs an empty hub.
func NewStatsHub() *StatsHub {
	return &StatsHub{buffers: make(map[uint64]*triplebuffer.Buffer[receiver.ReaderStatus])}
}

// Publish stores status as the newest snapshot for its reader ID.
// Called only from the network thread.
func (h *StatsHub) Publish(status receiver.ReaderStatus) {
	h.mu.Lock()
	buf, ok := h.buffers[status.ID]
	if !ok {
		buf = triplebuffer.New[receiver.ReaderStatus]()
		h.buffers[status.ID] = buf
	}
	h.mu.Unlock()
	buf.Update(status)
}

// Get returns the most recent snapshot for readerID not yet returned by
// an earlier Get, or ok=false if nothing has been published since the
// last Get (or the reader has never published). Get is single-consumer
// per reader ID: the underlying triplebuffer is SPSC, so concurrent Get
// calls for the same ID race, and a snapshot returned to one caller is
// not returned to another.
func (h *StatsHub) Get(readerID uint64) (receiver.ReaderStatus, bool) {
	h.mu.Lock()
	buf, ok := h.buffers[readerID]
	h.mu.Unlock()
	if !ok {
		return receiver.ReaderStatus{}, false
	}
	return buf.Get()
}

// IDs returns the reader IDs that have published at least one snapshot,
// for observers that need to poll every known reader (spec §5: "C
// read").
func (h *StatsHub) IDs() []uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]uint64, 0, len(h.buffers))
	for id := range h.buffers {
		out = append(out, id)
	}
	return out
}

// Forget drops a reader's buffer, for use after RemoveReader.
func (h *StatsHub) Forget(readerID uint64) {
	h.mu.Lock()
	delete(h.buffers, readerID)
	h.mu.Unlock()
}
