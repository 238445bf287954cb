// Package sourcefilter implements component C8: RFC 4570-style
// include/exclude filtering of RTP source addresses for a single
// connection (destination) address, as signalled by SDP source-filter
// attributes.
package sourcefilter

import "net/netip"

// Mode selects whether a filter entry includes or excludes its address.
type Mode int

const (
	ModeUndefined Mode = iota
	ModeInclude
	ModeExclude
)

type entry struct {
	mode    Mode
	address netip.Addr
}

// Filter decides whether packets arriving at one connection address from
// a given source address should be accepted.
type Filter struct {
	connectionAddress netip.Addr
	filters           []entry
}

// New constructs a Filter for the given connection (destination)
// address.
func New(connectionAddress netip.Addr) *Filter {
	return &Filter{connectionAddress: connectionAddress}
}

// ConnectionAddress returns the connection address this filter applies
// to.
func (f *Filter) ConnectionAddress() netip.Addr { return f.connectionAddress }

// AddFilter appends a single source address filter entry.
func (f *Filter) AddFilter(srcAddress netip.Addr, mode Mode) {
	f.filters = append(f.filters, entry{mode: mode, address: srcAddress})
}

// AddFilters appends one filter entry per address in srcAddresses, all
// sharing mode. It returns 0 without adding any entries if destAddress
// does not match this filter's connection address.
func (f *Filter) AddFilters(destAddress netip.Addr, srcAddresses []netip.Addr, mode Mode) int {
	if destAddress != f.connectionAddress {
		return 0
	}
	for _, src := range srcAddresses {
		f.AddFilter(src, mode)
	}
	return len(srcAddresses)
}

// IsValidSource reports whether a packet arriving at connectionAddress
// from srcAddress should be accepted.
//
// If connectionAddress doesn't match this filter's connection address,
// the source is rejected. With no filter entries at all, every source
// is accepted. Otherwise, exclude entries take priority over include
// entries; if any include entries are present, a source must match one
// of them to be accepted.
func (f *Filter) IsValidSource(connectionAddress, srcAddress netip.Addr) bool {
	if connectionAddress != f.connectionAddress {
		return false
	}
	if len(f.filters) == 0 {
		return true
	}

	included := false
	hasIncludeFilters := false

	for _, e := range f.filters {
		if e.mode == ModeExclude && e.address == srcAddress {
			return false
		}
		if e.mode == ModeInclude {
			hasIncludeFilters = true
			if e.address == srcAddress {
				included = true
			}
		}
	}

	if hasIncludeFilters {
		return included
	}
	return true
}

// Empty reports whether this filter has no entries.
func (f *Filter) Empty() bool { return len(f.filters) == 0 }
