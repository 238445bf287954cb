package receiver

import "gonum.org/v1/gonum/stat"

// intervalWindow is the number of recent inter-arrival samples the
// sliding interval estimator keeps: about 64ms of history at typical 1ms
// packet times, far shorter than the default 1000ms receive timeout.
const intervalWindow = 64

// intervalEstimator is the "sliding interval estimator" referenced by
// spec §3's StreamContext entity: it tracks recent packet inter-arrival
// times and reports their spread as a jitter estimate, appended to a
// published stats.Counters snapshot by the caller (spec §4.7).
//
// It is realtime safe to call from the network thread: Observe and
// Jitter only touch a small fixed-size slice, no allocation once warmed
// up.
type intervalEstimator struct {
	hasPrevious bool
	previousNs  int64

	deltas []float64 // seconds
	next   int
	filled int
}

func newIntervalEstimator() *intervalEstimator {
	return &intervalEstimator{deltas: make([]float64, intervalWindow)}
}

// Observe records a new packet arrival timestamp in nanoseconds
// (monotonic, wrap-tolerant only in the sense that callers pass
// monotonic clock readings that never wrap in practice).
func (e *intervalEstimator) Observe(arrivalNs int64) {
	if !e.hasPrevious {
		e.previousNs = arrivalNs
		e.hasPrevious = true
		return
	}
	delta := float64(arrivalNs-e.previousNs) / 1e9
	e.previousNs = arrivalNs
	e.deltas[e.next] = delta
	e.next = (e.next + 1) % len(e.deltas)
	if e.filled < len(e.deltas) {
		e.filled++
	}
}

// Jitter returns the standard deviation of recent inter-arrival
// intervals, in seconds. Zero until at least two samples have been
// observed.
func (e *intervalEstimator) Jitter() float64 {
	if e.filled < 2 {
		return 0
	}
	return stat.StdDev(e.deltas[:e.filled], nil)
}

// Reset clears all observed history, used when a StreamContext
// re-bootstraps after a no_consumer recovery.
func (e *intervalEstimator) Reset() {
	e.hasPrevious = false
	e.previousNs = 0
	e.next = 0
	e.filled = 0
}
