// Package aoipcore is a RAVENNA/AES67 RTP audio-over-IP core: a
// fixed-capacity table of receiver Readers and sender Writers sharing a
// single high-priority network thread, a pool of SocketSlots, and a
// lock-free chain of triple-buffers and spinlocked ring buffers between
// the network thread and realtime audio callers (SPEC_FULL.md §§1-5).
//
// Subpackages:
//
//   - wrapping, aoierr: sequence-number/timestamp wraparound arithmetic
//     and the package's sentinel error values.
//   - fifo, rcu, triplebuffer, spinlock, ringbuffer: the concurrency
//     primitives the rest of the module is built from (spec §1).
//   - rtppacket: RFC 3550 header encode/decode.
//   - stats, sourcefilter, audioformat: per-stream packet statistics,
//     RFC 4570 source filtering, and wire-format audio conversion.
//   - socketslot: the shared UDP socket pool keyed by port, with
//     multicast membership refcounted per (interface, group).
//   - receiver, sender: the Reader and Writer slot tables (components
//     C9/C10) and their realtime read/write entry points.
//   - netio: the single network thread tying the pool and both slot
//     tables together (component C14).
//   - metrics, control, config, logging: the observer-side Prometheus/
//     MQTT publication path, the REST/websocket control plane, YAML
//     configuration, and structured logging (SPEC_FULL.md §§10-11).
//
// The module contains no runnable example program.
package aoipcore
