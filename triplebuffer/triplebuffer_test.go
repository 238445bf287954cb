package triplebuffer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/triplebuffer"
)

func TestGetEmptyBeforeAnyUpdate(t *testing.T) {
	b := triplebuffer.New[int]()
	_, ok := b.Get()
	require.False(t, ok)
}

func TestGetReturnsLastWriterWinsValue(t *testing.T) {
	b := triplebuffer.New[int]()
	b.Update(1)
	b.Update(2)
	b.Update(3)

	v, ok := b.Get()
	require.True(t, ok)
	require.Equal(t, 3, v)

	_, ok = b.Get()
	require.False(t, ok, "second Get with no intervening Update must be empty")
}

// C3 property: successive non-empty Gets return values from non-decreasing
// Update positions.
func TestSuccessiveGetsAreNonDecreasing(t *testing.T) {
	b := triplebuffer.New[int]()
	last := -1
	for i := 0; i < 100; i++ {
		b.Update(i)
		if v, ok := b.Get(); ok {
			require.GreaterOrEqual(t, v, last)
			last = v
		}
	}
}
