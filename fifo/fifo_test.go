package fifo_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ravennakit-go/aoipcore/fifo"
)

func TestSPSCQueuePushPopOrder(t *testing.T) {
	q := fifo.NewQueue[int, fifo.SPSC, *fifo.SPSC](4)
	require.True(t, q.Push(1))
	require.True(t, q.Push(2))
	require.True(t, q.Push(3))
	require.True(t, q.Push(4))
	require.False(t, q.Push(5), "queue should be full at capacity")

	for _, want := range []int{1, 2, 3, 4} {
		got, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok := q.Pop()
	require.False(t, ok)
}

func TestSPSCQueueWriteReadWrapAround(t *testing.T) {
	q := fifo.NewQueue[byte, fifo.SPSC, *fifo.SPSC](8)
	require.True(t, q.Write([]byte{1, 2, 3, 4, 5, 6}))
	out := make([]byte, 6)
	require.True(t, q.Read(out))
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, out)

	// Now write/read again so the position wraps around the capacity.
	require.True(t, q.Write([]byte{7, 8, 9, 10}))
	out2 := make([]byte, 4)
	require.True(t, q.Read(out2))
	require.Equal(t, []byte{7, 8, 9, 10}, out2)
}

func TestSPSCInvalidLockLeavesQueueUnchanged(t *testing.T) {
	q := fifo.NewQueue[int, fifo.SPSC, *fifo.SPSC](2)
	require.True(t, q.Push(1))
	require.False(t, q.Write([]int{2, 3, 4}), "write larger than remaining space must fail")
	require.Equal(t, 1, q.Size())
}

// TestPrepareWriteLargerThanCapacityInvalid exercises the C1 edge case:
// prepare_write(n) with n > capacity must return an invalid lock.
func TestPrepareWriteLargerThanCapacityInvalid(t *testing.T) {
	var s fifo.SPSC
	s.Resize(4)
	lock := s.PrepareWrite(5)
	require.False(t, lock.Valid())
}

// C2 property: for any trace of interleaved push/pop, the sequence popped
// equals the prefix of the sequence pushed (every step attempts a push,
// and rapid decides per step whether a pop follows it).
func TestSPSCPushPopIsPrefixProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 64).Draw(t, "capacity")
		ops := rapid.SliceOfN(rapid.IntRange(0, 1000), 0, 200).Draw(t, "pushValues")

		q := fifo.NewQueue[int, fifo.SPSC, *fifo.SPSC](capacity)
		var pushed, popped []int
		for _, v := range ops {
			if q.Push(v) {
				pushed = append(pushed, v)
			}
			if rapid.Bool().Draw(t, "popNow") {
				if got, ok := q.Pop(); ok {
					popped = append(popped, got)
				}
			}
		}
		for {
			got, ok := q.Pop()
			if !ok {
				break
			}
			popped = append(popped, got)
		}
		require.True(t, len(popped) <= len(pushed))
		require.Equal(t, pushed[:len(popped)], popped)
	})
}
