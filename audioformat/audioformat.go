// Package audioformat describes the AudioFormat entity and implements
// its sample conversion matrix: byte order swap, interleaved <->
// non-interleaved reordering, and width conversion across pcm_u8,
// pcm_s16, pcm_s24, pcm_f32 and pcm_f64, via a normalized float64
// intermediate representation.
package audioformat

import (
	"encoding/binary"
	"math"

	"github.com/ravennakit-go/aoipcore/aoierr"
)

// ByteOrder selects the wire byte order of multi-byte samples.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// Encoding selects the sample encoding.
type Encoding int

const (
	PCMU8 Encoding = iota
	PCMS16
	PCMS24
	PCMF32
	PCMF64
)

// BytesPerSample returns the size of one sample in this encoding.
func (e Encoding) BytesPerSample() int {
	switch e {
	case PCMU8:
		return 1
	case PCMS16:
		return 2
	case PCMS24:
		return 3
	case PCMF32:
		return 4
	case PCMF64:
		return 8
	default:
		return 0
	}
}

// Ordering selects whether channel samples are interleaved
// (LRLRLR...) or stored as separate per-channel planes (LLL...RRR...).
type Ordering int

const (
	Interleaved Ordering = iota
	NonInterleaved
)

// Format describes the physical layout of a PCM audio stream.
type Format struct {
	ByteOrder    ByteOrder
	Encoding     Encoding
	Ordering     Ordering
	SampleRateHz uint32
	NumChannels  uint32
}

// Validate reports whether the format describes a usable stream.
func (f Format) Validate() bool {
	return f.SampleRateHz > 0 && f.NumChannels > 0 && f.Encoding.BytesPerSample() > 0
}

// BytesPerSample returns the size of one sample of this format.
func (f Format) BytesPerSample() int { return f.Encoding.BytesPerSample() }

// BytesPerFrame returns num_channels * bytes_per_sample.
func (f Format) BytesPerFrame() int { return int(f.NumChannels) * f.BytesPerSample() }

// GroundValue returns the byte value that represents silence for this
// format: 0x80 for unsigned 8-bit PCM, 0x00 for every signed/float
// encoding.
func (f Format) GroundValue() byte {
	if f.Encoding == PCMU8 {
		return 0x80
	}
	return 0x00
}

func endianOf(o ByteOrder) binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// decodeSample reads one sample at b[0:n] (n = bytesPerSample) and
// returns it normalized to [-1, 1] (or [0,1]-centered for u8, mapped to
// [-1,1] as well).
func decodeSample(b []byte, enc Encoding, order binary.ByteOrder) float64 {
	switch enc {
	case PCMU8:
		return (float64(b[0]) - 128) / 128
	case PCMS16:
		return float64(int16(order.Uint16(b))) / 32768
	case PCMS24:
		var raw uint32
		if order == binary.BigEndian {
			raw = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		} else {
			raw = uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
		}
		if raw&0x0080_0000 != 0 {
			raw |= 0xff00_0000
		}
		return float64(int32(raw)) / 8388608
	case PCMF32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case PCMF64:
		return math.Float64frombits(order.Uint64(b))
	default:
		return 0
	}
}

func encodeSample(b []byte, v float64, enc Encoding, order binary.ByteOrder) {
	switch enc {
	case PCMU8:
		b[0] = byte(clamp(v*128+128, 0, 255))
	case PCMS16:
		order.PutUint16(b, uint16(int16(clamp(v*32768, -32768, 32767))))
	case PCMS24:
		raw := int32(clamp(v*8388608, -8388608, 8388607))
		u := uint32(raw) & 0x00ff_ffff
		if order == binary.BigEndian {
			b[0] = byte(u >> 16)
			b[1] = byte(u >> 8)
			b[2] = byte(u)
		} else {
			b[0] = byte(u)
			b[1] = byte(u >> 8)
			b[2] = byte(u >> 16)
		}
	case PCMF32:
		order.PutUint32(b, math.Float32bits(float32(v)))
	case PCMF64:
		order.PutUint64(b, math.Float64bits(v))
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NonInterleavedFloat32 describes the native in-memory audio
// representation the C13 conversion matrix converts to/from on the
// application side: non-interleaved float32, samples in [-1, 1]. Go has
// no "native endian" format constant the way the source's native-word
// float32 buffers did, so LittleEndian is used unconditionally here -
// every platform this module targets (amd64, arm64) is little-endian.
func NonInterleavedFloat32(sampleRateHz, numChannels uint32) Format {
	return Format{
		ByteOrder:    LittleEndian,
		Encoding:     PCMF32,
		Ordering:     NonInterleaved,
		SampleRateHz: sampleRateHz,
		NumChannels:  numChannels,
	}
}

// PackFloat32 writes src into dst as consecutive little-endian float32
// values. len(dst) must be at least 4*len(src).
func PackFloat32(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// UnpackFloat32 reads len(dst) consecutive little-endian float32 values
// from src into dst. len(src) must be at least 4*len(dst).
func UnpackFloat32(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}

// Convert converts numFrames frames of src (in srcFormat) into dst (in
// dstFormat), handling byte order, width and interleaving differences.
// dst must already be sized to numFrames * dstFormat.BytesPerFrame();
// src must hold at least numFrames * srcFormat.BytesPerFrame() bytes.
// srcFormat.NumChannels and dstFormat.NumChannels must match - channel
// up/down-mixing is not part of this conversion matrix.
func Convert(dst []byte, dstFormat Format, src []byte, srcFormat Format, numFrames int) error {
	if !srcFormat.Validate() || !dstFormat.Validate() {
		return aoierr.ErrInvalidFormat
	}
	if srcFormat.NumChannels != dstFormat.NumChannels {
		return aoierr.ErrInvalidFormat
	}
	channels := int(srcFormat.NumChannels)
	if len(src) < numFrames*srcFormat.BytesPerFrame() || len(dst) < numFrames*dstFormat.BytesPerFrame() {
		return aoierr.ErrInvalidFormat
	}

	srcOrder := endianOf(srcFormat.ByteOrder)
	dstOrder := endianOf(dstFormat.ByteOrder)
	srcSampleSize := srcFormat.BytesPerSample()
	dstSampleSize := dstFormat.BytesPerSample()

	srcIndex := func(frame, channel int) int {
		if srcFormat.Ordering == Interleaved {
			return (frame*channels + channel) * srcSampleSize
		}
		return (channel*numFrames + frame) * srcSampleSize
	}
	dstIndex := func(frame, channel int) int {
		if dstFormat.Ordering == Interleaved {
			return (frame*channels + channel) * dstSampleSize
		}
		return (channel*numFrames + frame) * dstSampleSize
	}

	for frame := 0; frame < numFrames; frame++ {
		for channel := 0; channel < channels; channel++ {
			si := srcIndex(frame, channel)
			di := dstIndex(frame, channel)
			v := decodeSample(src[si:si+srcSampleSize], srcFormat.Encoding, srcOrder)
			encodeSample(dst[di:di+dstSampleSize], v, dstFormat.Encoding, dstOrder)
		}
	}
	return nil
}
