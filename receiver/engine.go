package receiver

import (
	"github.com/ravennakit-go/aoipcore/audioformat"
	"github.com/ravennakit-go/aoipcore/wrapping"
)

// drain implements spec §4.11 step 2 for both stream contexts. It is
// called with the reader's shared lock held.
func (r *Reader) drain() {
	for rank := 0; rank < 2; rank++ {
		s := r.Stream(rank)
		if s.Empty() {
			continue
		}
		if s.State() == StateNoConsumer {
			s.DrainAllIncoming()
			continue
		}
		n := s.incomingLen()
		for i := 0; i < n; i++ {
			pb, ok := s.popIncoming()
			if !ok {
				break
			}
			r.processPacket(s, pb)
		}
	}
}

// processPacket is one iteration of spec §4.11 step 2's per-packet
// logic: bootstrap the jitter engine's baseline on the very first
// packet it ever sees, track the redundancy engine's high watermark,
// flag stale packets, and write non-stale payload into the shared ring
// buffer.
func (r *Reader) processPacket(s *StreamContext, pb PacketBuffer) {
	bytesPerFrame := r.audioFormat.BytesPerFrame()
	if bytesPerFrame == 0 || pb.Length%bytesPerFrame != 0 {
		return
	}
	packetFrames := pb.Length / bytesPerFrame

	timestamp := wrapping.Uint32(pb.Timestamp)
	packetEnd := timestamp.Add(int64(packetFrames))

	if !r.hasMostRecent {
		r.mostRecentTS = packetEnd.Add(-1)
		r.ring.SetNextTS(uint32(timestamp))
		r.nextTSToRead = timestamp
		r.hasMostRecent = true
	}

	if r.mostRecentTS.Less(packetEnd) {
		r.mostRecentTS = packetEnd
	}

	if packetEnd.LessOrEqual(r.nextTSToRead) {
		// Entirely stale: every frame this packet carries has already
		// been read.
		s.PushTooOld(pb.Sequence)
		return
	}

	if timestamp.Less(r.nextTSToRead) && r.nextTSToRead.Less(packetEnd) {
		// Partially stale: the leading frames are gone but the tail is
		// still ahead of the read cursor, so it's still written below.
		s.PushTooOld(pb.Sequence)
	}

	r.ring.ClearUntil(uint32(timestamp))
	r.ring.Write(uint32(timestamp), pb.Payload())
}

// readRaw implements spec §4.11 step 3: optionally reset the read
// cursor, drain, then read num_frames = len(buf)/bytes_per_frame raw
// (wire-format) frames starting at next_ts_to_read.
func (r *Reader) readRaw(buf []byte, atTS *uint32, requireDelayFrames *int) (uint32, bool) {
	if !r.LockShared() {
		return 0, false
	}
	defer r.UnlockShared()

	if atTS != nil {
		r.nextTSToRead = wrapping.Uint32(*atTS)
	}

	r.drain()

	if !r.hasMostRecent {
		return 0, false
	}

	bytesPerFrame := r.audioFormat.BytesPerFrame()
	if bytesPerFrame == 0 || len(buf)%bytesPerFrame != 0 {
		return 0, false
	}
	numFrames := len(buf) / bytesPerFrame

	if requireDelayFrames != nil {
		required := r.nextTSToRead.Add(int64(numFrames) - 1 + int64(*requireDelayFrames))
		if r.mostRecentTS.Less(required) {
			return 0, false
		}
	}

	ts := uint32(r.nextTSToRead)
	if !r.ring.Read(ts, buf, true) {
		return 0, false
	}
	r.nextTSToRead = r.nextTSToRead.Add(int64(numFrames))
	return ts, true
}

// ReadDataRealtime reads raw, on-wire-byte-order frames into buf (spec
// §4.13 read_data_realtime). len(buf) must be a multiple of the reader's
// bytes-per-frame. Returns the timestamp the data was read at, or
// ok=false if no data is available yet (before the first packet, a
// malformed buf length, or an unmet requireDelayFrames).
func (r *Reader) ReadDataRealtime(buf []byte, atTS *uint32, requireDelayFrames *int) (uint32, bool) {
	return r.readRaw(buf, atTS, requireDelayFrames)
}

// ReadAudioDataRealtime reads frames and converts them into dst, a
// non-interleaved float32 buffer (spec §4.13
// read_audio_data_realtime). len(dst) must be a multiple of
// NumChannels; the number of frames read is len(dst)/NumChannels.
func (r *Reader) ReadAudioDataRealtime(dst []float32, atTS *uint32, requireDelayFrames *int) (uint32, bool) {
	channels := int(r.audioFormat.NumChannels)
	if channels == 0 || len(dst)%channels != 0 {
		return 0, false
	}
	numFrames := len(dst) / channels
	bytesPerFrame := r.audioFormat.BytesPerFrame()
	rawLen := numFrames * bytesPerFrame
	if rawLen > len(r.scratch) {
		return 0, false
	}

	raw := r.scratch[:rawLen]
	ts, ok := r.readRaw(raw, atTS, requireDelayFrames)
	if !ok {
		return 0, false
	}

	floatLen := len(dst) * 4
	if floatLen > len(r.floatScratch) {
		return 0, false
	}
	packed := r.floatScratch[:floatLen]

	dstFormat := audioformat.NonInterleavedFloat32(r.audioFormat.SampleRateHz, r.audioFormat.NumChannels)
	if err := audioformat.Convert(packed, dstFormat, raw, r.audioFormat, numFrames); err != nil {
		return 0, false
	}
	audioformat.UnpackFloat32(dst, packed)
	return ts, true
}
