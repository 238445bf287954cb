package socketslot

import "net/netip"

// Session is the (connection_address, rtp_port, rtcp_port) triple that
// identifies the endpoint a receiver listens on or a sender transmits
// to (spec §3 Entity: Session). By convention rtcp_port == rtp_port+1.
type Session struct {
	ConnectionAddress netip.Addr
	RTPPort           uint16
	RTCPPort          uint16
}

// Valid reports whether the session has a usable address and non-zero
// ports.
func (s Session) Valid() bool {
	return s.ConnectionAddress.IsValid() && s.RTPPort != 0 && s.RTCPPort != 0
}

// IsMulticast reports whether the session's connection address falls in
// the 224.0.0.0/4 multicast range.
func (s Session) IsMulticast() bool {
	return s.ConnectionAddress.IsValid() && s.ConnectionAddress.IsMulticast()
}
