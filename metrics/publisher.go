package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ravennakit-go/aoipcore/netio"
)

// PublishInterval is the default cadence for both process-gauge
// sampling and MQTT publication - non-realtime, observer-side work, so
// a human-scale interval (unlike netio.TickInterval) is appropriate.
const PublishInterval = 5 * time.Second

// Publisher periodically reads every reader's latest published snapshot
// out of a netio.StatsHub (spec §5: "Stats snapshot | N publish | C
// read | Triple buffer") and feeds it to the Prometheus collector and,
// if configured, an MQTT broker; it also refreshes the process resource
// gauges on the same cadence.
type Publisher struct {
	hub      *netio.StatsHub
	collect  *Collector
	process  *ProcessGauges
	mqtt     *MQTTPublisher
	logger   *zap.Logger
	interval time.Duration
}

// PublisherParams configures a Publisher. MQTT is optional.
type PublisherParams struct {
	Hub       *netio.StatsHub
	Collector *Collector
	Process   *ProcessGauges
	MQTT      *MQTTPublisher
	Interval  time.Duration
	Logger    *zap.Logger
}

// NewPublisher constructs a Publisher from params.
func NewPublisher(params PublisherParams) *Publisher {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := params.Interval
	if interval == 0 {
		interval = PublishInterval
	}
	return &Publisher{
		hub:      params.Hub,
		collect:  params.Collector,
		process:  params.Process,
		mqtt:     params.MQTT,
		logger:   logger.Named("metrics"),
		interval: interval,
	}
}

// Run blocks, publishing on each tick until ctx is canceled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *Publisher) tick() {
	if p.process != nil {
		if err := p.process.Sample(); err != nil {
			p.logger.Warn("sample process gauges", zap.Error(err))
		}
	}

	now := time.Now().UnixNano()
	for _, id := range p.hub.IDs() {
		status, ok := p.hub.Get(id)
		if !ok {
			continue
		}
		if p.collect != nil {
			p.collect.Observe(status)
		}
		if p.mqtt != nil {
			p.mqtt.Publish(status, now)
		}
	}
}
