package audioformat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/audioformat"
)

func stereoS16BE() audioformat.Format {
	return audioformat.Format{
		ByteOrder:    audioformat.BigEndian,
		Encoding:     audioformat.PCMS16,
		Ordering:     audioformat.Interleaved,
		SampleRateHz: 48000,
		NumChannels:  2,
	}
}

func TestValidateRejectsZeroRateOrChannels(t *testing.T) {
	f := stereoS16BE()
	require.True(t, f.Validate())

	f.SampleRateHz = 0
	require.False(t, f.Validate())

	f = stereoS16BE()
	f.NumChannels = 0
	require.False(t, f.Validate())
}

func TestBytesPerFrame(t *testing.T) {
	f := stereoS16BE()
	require.Equal(t, 4, f.BytesPerFrame())
}

func TestGroundValueForUnsigned8Bit(t *testing.T) {
	f := stereoS16BE()
	f.Encoding = audioformat.PCMU8
	require.Equal(t, byte(0x80), f.GroundValue())
	require.Equal(t, byte(0x00), stereoS16BE().GroundValue())
}

func TestConvertByteOrderSwapRoundTrips(t *testing.T) {
	be := stereoS16BE()
	le := be
	le.ByteOrder = audioformat.LittleEndian

	src := []byte{0x7F, 0xFF, 0x80, 0x00} // L=32767, R=-32768 big-endian
	dst := make([]byte, len(src))
	require.NoError(t, audioformat.Convert(dst, le, src, be, 1))

	back := make([]byte, len(src))
	require.NoError(t, audioformat.Convert(back, be, dst, le, 1))
	require.Equal(t, src, back)
}

func TestConvertInterleavedToNonInterleaved(t *testing.T) {
	be := stereoS16BE()
	planar := be
	planar.Ordering = audioformat.NonInterleaved

	// Two frames, L,R interleaved: (1,2), (3,4)
	src := []byte{
		0x00, 0x01, 0x00, 0x02,
		0x00, 0x03, 0x00, 0x04,
	}
	dst := make([]byte, len(src))
	require.NoError(t, audioformat.Convert(dst, planar, src, be, 2))

	// Planar: L plane (1,3), R plane (2,4)
	expected := []byte{
		0x00, 0x01, 0x00, 0x03,
		0x00, 0x02, 0x00, 0x04,
	}
	require.Equal(t, expected, dst)
}

func TestConvertWidensS16ToF32(t *testing.T) {
	src16 := stereoS16BE()
	dstF32 := src16
	dstF32.Encoding = audioformat.PCMF32

	src := []byte{0x7F, 0xFF, 0x80, 0x00} // near full-scale L, min R
	dst := make([]byte, 8)
	require.NoError(t, audioformat.Convert(dst, dstF32, src, src16, 1))

	back := make([]byte, 4)
	require.NoError(t, audioformat.Convert(back, src16, dst, dstF32, 1))
	require.InDelta(t, int16(0x7FFF), int16(uint16(back[0])<<8|uint16(back[1])), 2)
}

func TestConvertRejectsMismatchedChannelCount(t *testing.T) {
	src := stereoS16BE()
	dst := src
	dst.NumChannels = 1

	err := audioformat.Convert(make([]byte, 2), dst, make([]byte, 4), src, 1)
	require.Error(t, err)
}
