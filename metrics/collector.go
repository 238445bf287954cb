// Package metrics implements the observer-side publication paths named
// in SPEC_FULL.md §11's domain stack: Prometheus gauges for packet
// statistics and stream state (C7/C12), process resource gauges, and an
// MQTT feed of per-stream state and stats snapshots, mirroring the corresponding
// collectors in madpsy-ka9q_ubersdr's prometheus.go/mqtt_publisher.go
// adapted from that repo's SDR/decoder metrics to this core's
// reader/stream metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ravennakit-go/aoipcore/receiver"
)

const namespace = "aoipcore"

// Collector exports one Reader's per-stream packet statistics, jitter
// and state as Prometheus gauges, labeled by reader_id and rank (spec
// §6: "published statistics snapshots (counters + jitter); stream
// state").
type Collector struct {
	outOfOrder *prometheus.GaugeVec
	duplicates *prometheus.GaugeVec
	dropped    *prometheus.GaugeVec
	tooLate    *prometheus.GaugeVec
	tooOld     *prometheus.GaugeVec
	jitter     *prometheus.GaugeVec
	state      *prometheus.GaugeVec
}

// NewCollector registers a fresh set of stream gauges against reg.
// Passing prometheus.DefaultRegisterer matches the teacher's top-level
// promauto.NewGaugeVec calls; tests should pass a private
// prometheus.NewRegistry() to avoid cross-test collisions.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	labels := []string{"reader_id", "rank"}

	gauge := func(name, help string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      name,
			Help:      help,
		}, labels)
	}

	return &Collector{
		outOfOrder: gauge("out_of_order_total", "Out-of-order packets observed in the current statistics window."),
		duplicates: gauge("duplicates_total", "Duplicate packets observed in the current statistics window."),
		dropped:    gauge("dropped_total", "Dropped (never-arrived) packet slots in the current statistics window."),
		tooLate:    gauge("too_late_total", "Packets that arrived after the consumer had already read past their timestamp."),
		tooOld:     gauge("too_old_total", "Packets whose sequence number fell entirely outside the statistics window on arrival."),
		jitter:     gauge("jitter_seconds", "Inter-arrival jitter estimate in seconds."),
		state:      gauge("state", "StreamContext state: 0=inactive, 1=receiving, 2=no_consumer."),
	}
}

// Observe publishes both of status's stream snapshots.
func (c *Collector) Observe(status receiver.ReaderStatus) {
	c.observeStream(status.ID, "primary", status.Primary)
	c.observeStream(status.ID, "secondary", status.Secondary)
}

func (c *Collector) observeStream(readerID uint64, rank string, s receiver.StreamStatus) {
	if !s.Present {
		return
	}
	id := strconv.FormatUint(readerID, 10)

	c.outOfOrder.WithLabelValues(id, rank).Set(float64(s.Stats.Window.OutOfOrder))
	c.duplicates.WithLabelValues(id, rank).Set(float64(s.Stats.Window.Duplicates))
	c.dropped.WithLabelValues(id, rank).Set(float64(s.Stats.Window.Dropped))
	c.tooLate.WithLabelValues(id, rank).Set(float64(s.Stats.Window.TooLate))
	c.tooOld.WithLabelValues(id, rank).Set(float64(s.Stats.Total.TooOld))
	c.jitter.WithLabelValues(id, rank).Set(s.Stats.Jitter)
	c.state.WithLabelValues(id, rank).Set(float64(s.State))
}
