package stats_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/stats"
)

func TestInOrderArrivalsProduceNoWindowCounts(t *testing.T) {
	s := stats.NewPacketStats(8)
	for i := uint16(0); i < 8; i++ {
		_, changed := s.Update(i)
		require.False(t, changed)
	}
	wc := s.WindowCounts()
	require.Zero(t, wc.Dropped)
	require.Zero(t, wc.OutOfOrder)
	require.Zero(t, wc.Duplicates)
}

func TestDuplicatePacketIsCountedInWindow(t *testing.T) {
	s := stats.NewPacketStats(8)
	s.Update(1)
	s.Update(2)
	s.Update(2) // duplicate of most recent

	wc := s.WindowCounts()
	require.Equal(t, uint32(1), wc.Duplicates)
}

func TestDroppedPacketAgesIntoTotalCounts(t *testing.T) {
	s := stats.NewPacketStats(4)
	// Sequence 5 is skipped entirely.
	for _, seq := range []uint16{1, 2, 3, 4, 6, 7, 8, 9} {
		s.Update(seq)
	}
	total := s.TotalCounts()
	require.Equal(t, uint32(1), total.Dropped)
}

func TestOutOfOrderPacketArrivingLaterIsCounted(t *testing.T) {
	s := stats.NewPacketStats(8)
	s.Update(1)
	s.Update(3)
	s.Update(2) // arrives late, out of order relative to 3

	wc := s.WindowCounts()
	require.Equal(t, uint32(1), wc.OutOfOrder)
}

func TestTooOldPacketIncrementsTotalImmediately(t *testing.T) {
	s := stats.NewPacketStats(4)
	for _, seq := range []uint16{10, 11, 12, 13, 14} {
		s.Update(seq)
	}
	_, changed := s.Update(1) // far behind the window
	require.True(t, changed)
	require.Equal(t, uint32(1), s.TotalCounts().TooOld)
}

func TestMarkPacketTooLateRecordsInWindow(t *testing.T) {
	s := stats.NewPacketStats(8)
	s.Update(1)
	s.Update(2)
	s.MarkPacketTooLate(1)

	wc := s.WindowCounts()
	require.Equal(t, uint32(1), wc.TooLate)
}

func TestMarkPacketTooLateIgnoresNewerThanMostRecent(t *testing.T) {
	s := stats.NewPacketStats(8)
	s.Update(1)
	s.MarkPacketTooLate(5) // newer than most recent, no-op

	wc := s.WindowCounts()
	require.Zero(t, wc.TooLate)
}

func TestResetClearsStateAndResizesWindow(t *testing.T) {
	s := stats.NewPacketStats(4)
	s.Update(1)
	s.Update(2)
	require.Equal(t, 2, s.Count())

	s.Reset(8)
	require.Equal(t, 0, s.Count())
	require.Zero(t, s.TotalCounts().Dropped)
}
