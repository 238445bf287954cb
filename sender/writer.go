// Package sender implements component C10: the Writer slot table and the
// sender half of the audio conversion matrix (C13), the transmit-side
// counterpart to package receiver.
//
// Open Question Q1 (spec.md §9): on a timestamp discontinuity the RTP
// sequence number stays monotone - only the RTP timestamp and the ring
// buffer's next_ts jump to the new value. A discontinuity is never
// treated as a reason to restart the sequence space, so a receiver's
// duplicate/out-of-order bookkeeping keeps working across a reset.
package sender

import (
	"sync/atomic"

	"github.com/ravennakit-go/aoipcore/aoierr"
	"github.com/ravennakit-go/aoipcore/audioformat"
	"github.com/ravennakit-go/aoipcore/ringbuffer"
	"github.com/ravennakit-go/aoipcore/rtppacket"
	"github.com/ravennakit-go/aoipcore/wrapping"
)

// DefaultTTL is the default outbound TTL/hop-limit for both multicast
// and unicast destinations, and the default with multicast loopback
// disabled (spec §14 Q-adjacent note, grounded on
// original_source/include/ravennakit/rtp/detail/rtp_audio_sender.hpp).
const DefaultTTL = 15

// MaxNumFrames bounds a single send_audio_data_realtime call's frame
// count (spec §6 k_max_num_frames).
const MaxNumFrames = 4096

// BufferSizeMs sizes a Writer's accumulation ring buffer. It only needs
// to hold a little more than one packet_time_frames worth, since the
// packetizer drains a full packet the instant enough frames have
// accumulated; the extra headroom tolerates bursty callers.
const BufferSizeMs = 200

// WriterParams is the input to Table.AddWriter (spec §3 Entity: Writer).
type WriterParams struct {
	AudioFormat      audioformat.Format
	PayloadType      uint8
	SSRC             uint32
	PacketTimeFrames int
	Primary          DestinationParams
	Secondary        DestinationParams
}

// Writer is a sender slot (spec §3 Entity: Writer): an accumulation ring
// buffer, an RTP header sequence, and an outgoing SPSC of serialized
// packets drained by the network thread onto up to two destinations.
type Writer struct {
	id               uint64
	audioFormat      audioformat.Format
	packetTimeFrames int

	payloadType    uint8
	ssrc           uint32
	sequenceNumber uint16

	ring         ringbuffer.Ringbuffer
	nextPacketTS wrapping.Uint32

	primary   *destination
	secondary *destination

	outgoing *outgoingQueue
	failures atomic.Uint64

	packetScratch     []byte // one packet_time_frames worth of raw wire bytes
	conversionScratch []byte // up to MaxNumFrames worth of raw wire bytes
	packedScratch     []byte // up to MaxNumFrames worth of packed little-endian float32
}

// NewWriter builds a standalone Writer from params, including its two
// destination sockets. Table.AddWriter is the usual entry point.
func NewWriter(id uint64, params WriterParams) (*Writer, error) {
	if !params.AudioFormat.Validate() {
		return nil, aoierr.ErrInvalidFormat
	}

	primary, err := newDestination(params.Primary)
	if err != nil {
		return nil, err
	}
	secondary, err := newDestination(params.Secondary)
	if err != nil {
		_ = primary.close()
		return nil, err
	}

	w := &Writer{
		id:               id,
		audioFormat:      params.AudioFormat,
		packetTimeFrames: params.PacketTimeFrames,
		payloadType:      params.PayloadType,
		ssrc:             params.SSRC,
		primary:          primary,
		secondary:        secondary,
		outgoing:         newOutgoingQueue(),
	}

	bytesPerFrame := params.AudioFormat.BytesPerFrame()
	capacityFrames := uint32(params.AudioFormat.SampleRateHz) * BufferSizeMs / 1000
	if capacityFrames == 0 {
		capacityFrames = uint32(params.PacketTimeFrames) * 20
	}
	w.ring.Resize(capacityFrames, uint32(bytesPerFrame))
	w.ring.SetGroundValue(params.AudioFormat.GroundValue())

	w.packetScratch = make([]byte, params.PacketTimeFrames*bytesPerFrame)
	w.conversionScratch = make([]byte, MaxNumFrames*bytesPerFrame)
	w.packedScratch = make([]byte, MaxNumFrames*int(params.AudioFormat.NumChannels)*4)

	return w, nil
}

func (w *Writer) ID() uint64 { return w.id }

func (w *Writer) AudioFormat() audioformat.Format { return w.audioFormat }

// FailureCount returns the cumulative count of scheduling/transmission
// failures across both destinations (spec §3 Entity: Writer).
func (w *Writer) FailureCount() uint64 { return w.failures.Load() }

// SendDataRealtime accumulates bytes into the writer's ring buffer at
// ts, serializing and enqueueing as many full packets as have become
// available (spec §4.13 send_data_realtime). len(bytes) must be a
// multiple of the writer's bytes-per-frame.
func (w *Writer) SendDataRealtime(bytes []byte, ts uint32) bool {
	bytesPerFrame := w.audioFormat.BytesPerFrame()
	if bytesPerFrame == 0 || len(bytes)%bytesPerFrame != 0 {
		return false
	}

	if ts != uint32(w.ring.NextTS()) {
		// Timestamp discontinuity (spec §4.13): reset the ring's write
		// watermark and the packetizer's read cursor to ts. The sequence
		// number is left untouched (Q1).
		w.ring.SetNextTS(ts)
		w.nextPacketTS = wrapping.Uint32(ts)
	}

	if len(bytes) > 0 && !w.ring.Write(ts, bytes) {
		return false
	}

	for w.nextPacketTS.Distance(w.ring.NextTS()) >= int64(w.packetTimeFrames) {
		w.emitPacket()
	}
	return true
}

// SendAudioDataRealtime converts src, a non-interleaved float32 buffer,
// into the writer's wire format and delegates to SendDataRealtime (spec
// §4.13 send_audio_data_realtime). len(src) must be a multiple of
// NumChannels.
func (w *Writer) SendAudioDataRealtime(src []float32, ts uint32) bool {
	channels := int(w.audioFormat.NumChannels)
	if channels == 0 || len(src)%channels != 0 {
		return false
	}
	numFrames := len(src) / channels
	bytesPerFrame := w.audioFormat.BytesPerFrame()
	rawLen := numFrames * bytesPerFrame
	packedLen := len(src) * 4
	if rawLen > len(w.conversionScratch) || packedLen > len(w.packedScratch) {
		return false
	}

	packed := w.packedScratch[:packedLen]
	audioformat.PackFloat32(packed, src)

	srcFormat := audioformat.NonInterleavedFloat32(w.audioFormat.SampleRateHz, w.audioFormat.NumChannels)
	raw := w.conversionScratch[:rawLen]
	if err := audioformat.Convert(raw, w.audioFormat, packed, srcFormat, numFrames); err != nil {
		return false
	}
	return w.SendDataRealtime(raw, ts)
}

// emitPacket reads exactly packetTimeFrames frames starting at
// nextPacketTS, serializes them into an RTP packet, and pushes it onto
// the outgoing SPSC, counting (and advancing past) a push failure the
// same as a successful emit - the data has already left the ring buffer
// either way.
func (w *Writer) emitPacket() {
	ts := uint32(w.nextPacketTS)
	raw := w.packetScratch[:w.packetTimeFrames*w.audioFormat.BytesPerFrame()]
	if !w.ring.Read(ts, raw, true) {
		return
	}

	builder := rtppacket.PacketBuilder{
		PayloadType:    w.payloadType,
		SequenceNumber: w.sequenceNumber,
		Timestamp:      ts,
		SSRC:           w.ssrc,
		Payload:        raw,
	}

	var blob PacketBlob
	n := builder.Encode(blob.Data[:])
	if n > 0 {
		blob.Length = n
		if !w.outgoing.Push(blob) {
			w.failures.Add(1)
		}
	}

	w.sequenceNumber++
	w.nextPacketTS = w.nextPacketTS.Add(int64(w.packetTimeFrames))
}

// PopOutgoing removes and returns the oldest queued serialized packet,
// or ok=false if the outgoing SPSC is empty. Exposed directly (alongside
// SendOutgoingPackets, which calls it) for callers and tests that want
// to inspect serialized packets without a real destination socket.
func (w *Writer) PopOutgoing() (PacketBlob, bool) { return w.outgoing.Pop() }

// PendingOutgoing reports how many serialized packets are currently
// queued awaiting transmission.
func (w *Writer) PendingOutgoing() int { return w.outgoing.Size() }

// SendOutgoingPackets drains every packet currently queued and calls
// send_to once per enabled destination, deduplicating identical
// consecutive errors per destination (spec §4.10, §4.14 step 5).
func (w *Writer) SendOutgoingPackets() {
	for {
		blob, ok := w.PopOutgoing()
		if !ok {
			return
		}
		payload := blob.Bytes()
		w.sendTo(w.primary, payload)
		w.sendTo(w.secondary, payload)
	}
}

func (w *Writer) sendTo(d *destination, payload []byte) {
	if d.empty() {
		return
	}
	err := d.send(payload)
	if err == nil {
		d.clearFault()
		return
	}
	if d.noteFault(err) {
		w.failures.Add(1)
	}
}

func (w *Writer) reset() {
	_ = w.primary.close()
	_ = w.secondary.close()
	w.outgoing.Reset()
}
