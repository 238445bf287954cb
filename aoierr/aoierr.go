// Package aoierr defines the sentinel errors returned by control-plane
// operations across the module. Realtime-path operations never return
// error values (spec §7) - they use sentinel (T, bool)/(T, ok) returns
// instead, so this package is only consumed from control threads.
package aoierr

import "errors"

var (
	// ErrInvalidFormat is returned when an AudioFormat fails validation
	// (zero sample rate, zero channel count, unsupported encoding).
	ErrInvalidFormat = errors.New("aoipcore: invalid audio format")

	// ErrInvalidSession is returned when a Session is missing an address
	// or has a zero port.
	ErrInvalidSession = errors.New("aoipcore: invalid session")

	// ErrSlotTableFull is returned when no free Reader/Writer slot remains.
	ErrSlotTableFull = errors.New("aoipcore: slot table full")

	// ErrDuplicateID is returned when add_reader/add_writer is called
	// with an id already in use.
	ErrDuplicateID = errors.New("aoipcore: id already in use")

	// ErrNotFound is returned when an operation references an id that
	// does not correspond to a live slot.
	ErrNotFound = errors.New("aoipcore: id not found")

	// ErrSocketBindFailed is returned when a SocketSlot fails to bind.
	ErrSocketBindFailed = errors.New("aoipcore: socket bind failed")

	// ErrMulticastJoinFailed is returned when joining a multicast group fails.
	ErrMulticastJoinFailed = errors.New("aoipcore: multicast join failed")

	// ErrLockUpperBoundReached is returned when an RW spinlock's spin
	// bound (k_loop_upper_bound) is exceeded.
	ErrLockUpperBoundReached = errors.New("aoipcore: spinlock loop upper bound reached")

	// ErrWindowTooLarge names a packet-statistics window size that
	// exceeds the 16-bit sequence number space (65535). No function in
	// this module returns it: stats.NewPacketStats does not check its
	// window size.
	ErrWindowTooLarge = errors.New("aoipcore: window size exceeds sequence number space")

	// ErrUnspecifiedDestination is returned when a sender path is enabled
	// but has no destination endpoint configured.
	ErrUnspecifiedDestination = errors.New("aoipcore: enabled sender path has no destination")

	// ErrInvalidTTL is returned when a writer is configured with ttl == 0.
	ErrInvalidTTL = errors.New("aoipcore: ttl must be non-zero")

	// ErrUnsupportedProfileVersion is returned by config validation when a
	// configured profile_version is newer than this build supports.
	ErrUnsupportedProfileVersion = errors.New("aoipcore: unsupported profile version")
)
