package receiver

// MaxPayload is the AES67 MTU budget for a single RTP payload (spec §6
// k_max_payload), sized to fit a 1440-byte payload within a standard
// 1500-byte Ethernet MTU alongside IP/UDP/RTP headers.
const MaxPayload = 1440

// PacketBuffer is what the network thread pushes onto a StreamContext's
// incoming SPSC after parsing an RTP packet: just enough of the packet
// to drive the jitter engine, copied out of the socket's scratch buffer
// so the network thread can reuse it immediately.
type PacketBuffer struct {
	Timestamp uint32
	Sequence  uint16
	Length    int
	Data      [MaxPayload]byte
}

// Payload returns the valid portion of Data.
func (p *PacketBuffer) Payload() []byte { return p.Data[:p.Length] }
