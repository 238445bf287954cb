package metrics

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/ravennakit-go/aoipcore/receiver"
)

// MQTTConfig configures MQTTPublisher's broker connection, mirroring
// the fields the teacher's MQTTConfig exposes (mqtt_publisher.go).
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	TLS      *tls.Config
	// Topic is the base topic; Publish appends /<reader_id>/<rank>.
	Topic string
}

// streamPayload is the JSON body published per (reader, rank), plain
// encoding/json rather than the control package's sonic codec - the
// teacher's own mqtt_publisher.go MetricPayload uses encoding/json too,
// not its prometheus client; there's no high-throughput decode path on
// this side to justify a faster codec.
type streamPayload struct {
	ReaderID  uint64                   `json:"reader_id"`
	Rank      string                   `json:"rank"`
	State     string                   `json:"state"`
	Jitter    float64                  `json:"jitter_seconds"`
	Window    receiver.TotalsAndWindow `json:"window"`
	Total     receiver.TotalsAndWindow `json:"total"`
	Timestamp int64                    `json:"ts_unix_ns"`
}

// MQTTPublisher publishes per-stream snapshots (current stream state plus
// stats) to an MQTT broker on each Publish call; it does not publish
// separately when a stream changes state (SPEC_FULL.md §11, grounded on the
// teacher's mqtt_publisher.go MQTTPublisher/startMetricsPublisher).
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	logger *zap.Logger
}

// NewMQTTPublisher connects to cfg.Broker and returns a ready publisher.
func NewMQTTPublisher(cfg MQTTConfig, logger *zap.Logger) (*MQTTPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "aoipcore"
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "aoipcore/streams"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.TLS != nil {
		opts.SetTLSConfig(cfg.TLS)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("mqtt: connected to broker", zap.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt: connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", cfg.Broker, token.Error())
	}

	return &MQTTPublisher{client: client, topic: topic, logger: logger}, nil
}

// Publish publishes both of status's stream snapshots under
// <topic>/<reader_id>/<rank>.
func (p *MQTTPublisher) Publish(status receiver.ReaderStatus, nowNs int64) {
	p.publishStream(status.ID, "primary", status.Primary, nowNs)
	p.publishStream(status.ID, "secondary", status.Secondary, nowNs)
}

func (p *MQTTPublisher) publishStream(readerID uint64, rank string, s receiver.StreamStatus, nowNs int64) {
	if !s.Present {
		return
	}
	payload := streamPayload{
		ReaderID:  readerID,
		Rank:      rank,
		State:     s.State.String(),
		Jitter:    s.Stats.Jitter,
		Window:    s.Stats.Window,
		Total:     s.Stats.Total,
		Timestamp: nowNs,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("mqtt: marshal payload", zap.Error(err))
		return
	}

	topic := fmt.Sprintf("%s/%d/%s", p.topic, readerID, rank)
	token := p.client.Publish(topic, 0, false, data)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.logger.Warn("mqtt: publish failed", zap.String("topic", topic), zap.Error(token.Error()))
		}
	}()
}

// Close disconnects from the broker, waiting up to 250ms for
// in-flight publishes to drain.
func (p *MQTTPublisher) Close() { p.client.Disconnect(250) }
