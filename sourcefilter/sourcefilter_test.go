package sourcefilter_test

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/sourcefilter"
)

func TestWrongConnectionAddressIsRejected(t *testing.T) {
	conn := netip.MustParseAddr("239.1.1.1")
	other := netip.MustParseAddr("239.2.2.2")
	src := netip.MustParseAddr("10.0.0.1")

	f := sourcefilter.New(conn)
	require.False(t, f.IsValidSource(other, src))
}

func TestEmptyFilterAcceptsAnySource(t *testing.T) {
	conn := netip.MustParseAddr("239.1.1.1")
	src := netip.MustParseAddr("10.0.0.1")

	f := sourcefilter.New(conn)
	require.True(t, f.Empty())
	require.True(t, f.IsValidSource(conn, src))
}

func TestIncludeFilterRestrictsToListedSources(t *testing.T) {
	conn := netip.MustParseAddr("239.1.1.1")
	allowed := netip.MustParseAddr("10.0.0.1")
	other := netip.MustParseAddr("10.0.0.2")

	f := sourcefilter.New(conn)
	f.AddFilter(allowed, sourcefilter.ModeInclude)

	require.True(t, f.IsValidSource(conn, allowed))
	require.False(t, f.IsValidSource(conn, other))
}

func TestExcludeFilterTakesPriorityOverInclude(t *testing.T) {
	conn := netip.MustParseAddr("239.1.1.1")
	addr := netip.MustParseAddr("10.0.0.1")

	f := sourcefilter.New(conn)
	f.AddFilter(addr, sourcefilter.ModeInclude)
	f.AddFilter(addr, sourcefilter.ModeExclude)

	require.False(t, f.IsValidSource(conn, addr))
}

func TestAddFiltersRejectsMismatchedDestAddress(t *testing.T) {
	conn := netip.MustParseAddr("239.1.1.1")
	wrongDest := netip.MustParseAddr("239.9.9.9")
	src := netip.MustParseAddr("10.0.0.1")

	f := sourcefilter.New(conn)
	n := f.AddFilters(wrongDest, []netip.Addr{src}, sourcefilter.ModeInclude)
	require.Equal(t, 0, n)
	require.True(t, f.Empty())
}
