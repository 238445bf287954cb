package sender

import (
	"sync"

	"github.com/ravennakit-go/aoipcore/aoierr"
)

// MaxNumWriters is the capacity of the writer slot table. spec.md names
// no writer-specific constant, so this mirrors k_max_num_readers (spec
// §6) rather than inventing an unrelated figure.
const MaxNumWriters = 16

// Table is the fixed-capacity Writer slot table (spec §4.10, component
// C10). Unlike the receiver's Table, it owns no shared socketslot.Pool -
// each Writer opens its own dedicated outbound sockets.
type Table struct {
	mu      sync.Mutex
	writers [MaxNumWriters]*Writer
	byID    map[uint64]int
}

// NewTable constructs an empty writer slot table.
func NewTable() *Table {
	return &Table{byID: make(map[uint64]int)}
}

// Writers returns every currently occupied writer slot, for iteration by
// the network thread loop (spec §4.14 step 5).
func (t *Table) Writers() []*Writer {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Writer, 0, len(t.byID))
	for _, idx := range t.byID {
		out = append(out, t.writers[idx])
	}
	return out
}

// Get returns the writer with the given id, or nil if none exists.
func (t *Table) Get(id uint64) *Writer {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.byID[id]
	if !ok {
		return nil
	}
	return t.writers[idx]
}

// AddWriter locates a free slot and builds a Writer from params,
// including its destination sockets (spec §4.10). On any failure the
// table is left unchanged.
func (t *Table) AddWriter(id uint64, params WriterParams) (*Writer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.byID[id]; exists {
		return nil, aoierr.ErrDuplicateID
	}

	idx := -1
	for i, slot := range t.writers {
		if slot == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, aoierr.ErrSlotTableFull
	}

	w, err := NewWriter(id, params)
	if err != nil {
		return nil, err
	}

	t.writers[idx] = w
	t.byID[id] = idx
	return w, nil
}

// RemoveWriter closes the writer's destination sockets and returns its
// slot to the free pool.
func (t *Table) RemoveWriter(id uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.byID[id]
	if !ok {
		return aoierr.ErrNotFound
	}
	w := t.writers[idx]
	w.reset()

	delete(t.byID, id)
	t.writers[idx] = nil
	return nil
}
