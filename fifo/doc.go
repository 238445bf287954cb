// Package fifo is component C1 of the audio-over-IP core: a lock-free
// byte/record queue with two-region (wrap-around) views for realtime-safe
// copying, in the flavors spec §4.1 enumerates (single, spsc, mpsc, spmc,
// mpmc). Only Single and SPSC are used on realtime paths; the others exist
// for control-plane producers/consumers sharing a queue with a realtime
// counterpart.
package fifo
