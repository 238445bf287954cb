package receiver

import "github.com/ravennakit-go/aoipcore/fifo"

// packetQueue is the network->audio SPSC of PacketBuffers (spec §3
// StreamContext: "an SPSC of packet buffers"), built directly on fifo's
// generic Queue[T,S,PS] rather than reinventing prepare/commit glue.
type packetQueue = fifo.Queue[PacketBuffer, fifo.SPSC, *fifo.SPSC]

// seqQueue is the audio->network SPSC of late-discarded sequence numbers
// (spec §3 StreamContext: "an SPSC of sequence numbers of late-discarded
// packets").
type seqQueue = fifo.Queue[uint16, fifo.SPSC, *fifo.SPSC]

func newPacketQueue(capacity int) *packetQueue {
	return fifo.NewQueue[PacketBuffer, fifo.SPSC, *fifo.SPSC](capacity)
}

func newSeqQueue(capacity int) *seqQueue {
	return fifo.NewQueue[uint16, fifo.SPSC, *fifo.SPSC](capacity)
}
