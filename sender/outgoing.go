package sender

import "github.com/ravennakit-go/aoipcore/fifo"

// MaxPayload bounds a single outgoing packet's RTP payload (spec §4.6's
// wire format, sized the same as the receive side's PacketBuffer).
const MaxPayload = 1440

const headerLength = 12

// MaxPacketSize bounds a fully-serialized outgoing RTP packet: the fixed
// 12-byte header plus MaxPayload (no CSRC, no extension - the sender
// emits neither, per spec §4.13).
const MaxPacketSize = headerLength + MaxPayload

// PacketBlob is a fully-formed, serialized RTP packet sitting in a
// Writer's outgoing SPSC (spec §3 Entity: Writer: "an SPSC of
// fully-formed RTP packet byte blobs").
type PacketBlob struct {
	Length int
	Data   [MaxPacketSize]byte
}

// Bytes returns the serialized packet.
func (p *PacketBlob) Bytes() []byte { return p.Data[:p.Length] }

// OutgoingQueueDepth is the default depth of a Writer's outgoing SPSC
// (spec §6 k_buffer_num_packets).
const OutgoingQueueDepth = 20

type outgoingQueue = fifo.Queue[PacketBlob, fifo.SPSC, *fifo.SPSC]

func newOutgoingQueue() *outgoingQueue {
	return fifo.NewQueue[PacketBlob, fifo.SPSC, *fifo.SPSC](OutgoingQueueDepth)
}
