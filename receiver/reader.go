package receiver

import (
	"net"

	"github.com/ravennakit-go/aoipcore/audioformat"
	"github.com/ravennakit-go/aoipcore/ringbuffer"
	"github.com/ravennakit-go/aoipcore/socketslot"
	"github.com/ravennakit-go/aoipcore/sourcefilter"
	"github.com/ravennakit-go/aoipcore/spinlock"
	"github.com/ravennakit-go/aoipcore/wrapping"
)

// RankPrimary and RankSecondary index a Reader's two StreamContexts
// (spec §3: "two StreamContexts (primary, secondary; either may be
// empty)"), used by ST 2022-7 seamless redundant-path protection.
const (
	RankPrimary   = 0
	RankSecondary = 1
)

// BufferSizeMs is the default receiver ring buffer length (spec §6
// k_buffer_size_ms).
const BufferSizeMs = 200

// PacketStatsWindow is the default packet-statistics sliding window size
// in packets, per stream.
const PacketStatsWindow = 512

// MaxNumFrames bounds a single send/receive call's frame count (spec §6
// k_max_num_frames), sizing the Reader's scratch conversion buffers so
// read_audio_data_realtime never allocates on the realtime path.
const MaxNumFrames = 4096

// StreamParams describes one of a Reader's two StreamContexts as
// resolved by the SDP layer (spec §6 inputs): a session, an optional
// source filter, and a nominal packet duration in frames. A zero-value
// Session leaves the stream empty.
type StreamParams struct {
	Session          socketslot.Session
	Filter           *sourcefilter.Filter
	PacketTimeFrames int
}

func (p StreamParams) empty() bool { return !p.Session.Valid() }

// ReaderParams is the input to Table.AddReader: the audio format shared
// by both streams and up to two StreamParams (spec §3 Entity: Reader).
type ReaderParams struct {
	AudioFormat audioformat.Format
	Primary     StreamParams
	Secondary   StreamParams
}

// StreamStatus is a read-only snapshot of one StreamContext's externally
// observable state, for health reporting (spec §4.12, §14 Q3: "the
// receiver package's Reader.Status() exposes both StreamContext states
// unaggregated").
type StreamStatus struct {
	Present bool
	Session socketslot.Session
	State   StreamState
	Stats   StatsSnapshot
}

// StatsSnapshot is a point-in-time packet-statistics + jitter reading,
// the shape spec §4.7 describes publishing ("a jitter field ... is
// appended by the caller before publication").
type StatsSnapshot struct {
	Window TotalsAndWindow
	Total  TotalsAndWindow
	Jitter float64
}

// TotalsAndWindow mirrors stats.Counters; redeclared here rather than
// aliased so receiver's public API doesn't leak the stats package's
// internal window-vs-total distinction into observer code that only
// wants counts.
type TotalsAndWindow struct {
	OutOfOrder uint32
	Duplicates uint32
	Dropped    uint32
	TooLate    uint32
	TooOld     uint32
}

// ReaderStatus is the aggregate Status() result for a Reader.
type ReaderStatus struct {
	ID        uint64
	Primary   StreamStatus
	Secondary StreamStatus
}

// Reader is a receiver slot (spec §3 Entity: Reader): up to two
// redundant StreamContexts sharing one time-indexed ring buffer and one
// jitter/redundancy engine (C11).
type Reader struct {
	id          uint64
	audioFormat audioformat.Format

	primary   *StreamContext
	secondary *StreamContext

	ring ringbuffer.Ringbuffer
	lock spinlock.RWSpinlock

	hasMostRecent bool
	mostRecentTS  wrapping.Uint32
	nextTSToRead  wrapping.Uint32

	scratch      []byte // wire-format raw frames, sized for the larger of ring capacity and MaxNumFrames
	floatScratch []byte // packed little-endian float32, non-interleaved
}

// NewReader builds a standalone Reader from params: its ring buffer,
// stream contexts and jitter engine, with no socket wiring. Table.AddReader
// is the usual entry point, which wraps this with SocketSlot acquisition
// and multicast group membership (spec §4.9); NewReader is exported
// directly for callers (and tests) that drive a Reader's StreamContexts
// without the slot table, e.g. feeding PacketBuffers from a transport
// other than socketslot.
func NewReader(id uint64, params ReaderParams) *Reader {
	r := &Reader{
		id:          id,
		audioFormat: params.AudioFormat,
		primary:     newStreamContext(params.Primary.Session, params.Primary.Filter, params.Primary.PacketTimeFrames, PacketStatsWindow),
		secondary:   newStreamContext(params.Secondary.Session, params.Secondary.Filter, params.Secondary.PacketTimeFrames, PacketStatsWindow),
	}

	largestPacketFrames := params.Primary.PacketTimeFrames
	if params.Secondary.PacketTimeFrames > largestPacketFrames {
		largestPacketFrames = params.Secondary.PacketTimeFrames
	}
	bytesPerFrame := uint32(params.AudioFormat.BytesPerFrame())
	capacityFrames := uint32(params.AudioFormat.SampleRateHz) * BufferSizeMs / 1000
	if capacityFrames == 0 {
		capacityFrames = uint32(largestPacketFrames) * 20
	}
	r.ring.Resize(capacityFrames, bytesPerFrame)
	r.ring.SetGroundValue(params.AudioFormat.GroundValue())

	scratchFrames := int(capacityFrames)
	if MaxNumFrames > scratchFrames {
		scratchFrames = MaxNumFrames
	}
	r.scratch = make([]byte, scratchFrames*int(bytesPerFrame))
	r.floatScratch = make([]byte, MaxNumFrames*int(params.AudioFormat.NumChannels)*4)

	return r
}

func (r *Reader) ID() uint64 { return r.id }

func (r *Reader) AudioFormat() audioformat.Format { return r.audioFormat }

// Stream returns the primary (rank 0) or secondary (rank 1) stream
// context.
func (r *Reader) Stream(rank int) *StreamContext {
	if rank == RankSecondary {
		return r.secondary
	}
	return r.primary
}

func (r *Reader) LockShared() bool    { return r.lock.LockShared() }
func (r *Reader) UnlockShared()       { r.lock.UnlockShared() }
func (r *Reader) LockExclusive() bool { return r.lock.LockExclusive() }
func (r *Reader) UnlockExclusive()    { r.lock.UnlockExclusive() }

// Status returns a read-only snapshot of both stream contexts' state,
// for observers (spec §14 Q3). It does not aggregate a merged-stream
// state, per the open question's decision.
func (r *Reader) Status() ReaderStatus {
	return ReaderStatus{
		ID:        r.id,
		Primary:   streamStatus(r.primary),
		Secondary: streamStatus(r.secondary),
	}
}

func streamStatus(s *StreamContext) StreamStatus {
	if s.Empty() {
		return StreamStatus{}
	}
	window := s.Stats().WindowCounts()
	total := s.Stats().TotalCounts()
	return StreamStatus{
		Present: true,
		Session: s.Session(),
		State:   s.State(),
		Stats: StatsSnapshot{
			Window: TotalsAndWindow(window),
			Total:  TotalsAndWindow(total),
			Jitter: s.Jitter(),
		},
	}
}

// reset clears a Reader back to an unused slot state, ready to be
// reused by a future AddReader call.
func (r *Reader) reset() {
	r.primary.reset()
	r.secondary.reset()
	r.hasMostRecent = false
	r.mostRecentTS = 0
	r.nextTSToRead = 0
}

// boundInterfaces reports the interface addresses currently bound for
// the primary/secondary streams, used by SetInterfaces to compute which
// streams actually changed.
func (r *Reader) boundInterfaces() (primary, secondary *net.Interface) {
	return r.primary.BoundInterface(), r.secondary.BoundInterface()
}
