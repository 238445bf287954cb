package sender

import (
	"fmt"
	"net"
	"net/netip"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/time/rate"

	"github.com/ravennakit-go/aoipcore/aoierr"
	"github.com/ravennakit-go/aoipcore/socketslot"
)

// faultLogInterval bounds how often a destination re-reports a
// persistently failing send once the error message itself stops
// changing (spec §4.10: "deduplicates identical consecutive errors to
// avoid log spam").
const faultLogInterval = time.Second

// DestinationParams configures one of a Writer's two (primary/secondary)
// transmit paths (spec §3 Entity: Writer: "two destination endpoints,
// two sockets (one per interface)").
type DestinationParams struct {
	Session   socketslot.Session
	Interface *net.Interface
	TTL       int
	Enabled   bool
}

func (p DestinationParams) validate() error {
	if !p.Enabled {
		return nil
	}
	if !p.Session.Valid() {
		return aoierr.ErrUnspecifiedDestination
	}
	if p.TTL <= 0 {
		return aoierr.ErrInvalidTTL
	}
	return nil
}

// destination owns one outbound socket dedicated to a single Writer
// stream, never shared across writers (spec §4.10: "each Writer owns its
// own sockets"). A disabled or unconfigured destination has a nil sock
// and every send is a no-op.
type destination struct {
	params  DestinationParams
	sock    *net.UDPConn
	lastErr string
	limiter *rate.Limiter
}

func newDestination(params DestinationParams) (*destination, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if !params.Enabled {
		return &destination{params: params}, nil
	}
	limiter := rate.NewLimiter(rate.Every(faultLogInterval), 1)

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", aoierr.ErrSocketBindFailed, err)
	}

	pc := ipv4.NewPacketConn(conn)
	if params.Interface != nil {
		if err := pc.SetMulticastInterface(params.Interface); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set outbound interface: %w", err)
		}
	}
	if err := pc.SetMulticastTTL(params.TTL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set multicast ttl: %w", err)
	}
	if err := pc.SetTTL(params.TTL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set unicast ttl: %w", err)
	}
	if err := pc.SetMulticastLoopback(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("disable multicast loopback: %w", err)
	}

	return &destination{params: params, sock: conn, limiter: limiter}, nil
}

func (d *destination) empty() bool { return d.sock == nil }

func (d *destination) send(payload []byte) error {
	if d.empty() {
		return nil
	}
	addr := net.UDPAddrFromAddrPort(netip.AddrPortFrom(d.params.Session.ConnectionAddress, d.params.Session.RTPPort))
	_, err := d.sock.WriteToUDP(payload, addr)
	return err
}

// noteFault reports whether this failure should be counted: either the
// message changed since the last one, or the dedup window has elapsed
// and the same fault is worth re-reporting.
func (d *destination) noteFault(err error) bool {
	msg := err.Error()
	changed := msg != d.lastErr
	d.lastErr = msg
	return changed || d.limiter.Allow()
}

func (d *destination) clearFault() { d.lastErr = "" }

func (d *destination) close() error {
	if d.empty() {
		return nil
	}
	return d.sock.Close()
}
