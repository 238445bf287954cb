// Package config loads the module's configuration JSON/YAML collaborator
// (spec §6 tunables) the way the teacher loads its own Config: a single
// nested struct, one sub-struct per subsystem, read with
// gopkg.in/yaml.v3 and defaulted in an ApplyDefaults method (mirroring
// the teacher's LoadConfig/Validate split in config.go).
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/ravennakit-go/aoipcore/netio"
	"github.com/ravennakit-go/aoipcore/receiver"
	"github.com/ravennakit-go/aoipcore/sender"
)

// MinSupportedProfileVersion is the profile_version ApplyDefaults fills
// in when none is configured. Validate sets no lower bound on it: only a
// revision newer than MaxSupportedProfileVersion is rejected at load time.
const MinSupportedProfileVersion = "aes67-1.0"

// MaxSupportedProfileVersion is the newest profile_version this build
// has been validated against.
const MaxSupportedProfileVersion = "aes67-1.0"

// Config is the root configuration object (spec §6: "Inputs: ...
// configuration (tunables)").
type Config struct {
	ProfileVersion string         `yaml:"profile_version"`
	Receiver       ReceiverConfig `yaml:"receiver"`
	Sender         SenderConfig   `yaml:"sender"`
	Network        NetworkConfig  `yaml:"network"`
	Logging        LoggingConfig  `yaml:"logging"`
	Metrics        MetricsConfig  `yaml:"metrics"`
	MQTT           MQTTConfig     `yaml:"mqtt"`
}

// ReceiverConfig holds the C9 reader-side tunables (spec §6
// k_max_num_readers, k_buffer_size_ms, and the packet-statistics window
// size).
type ReceiverConfig struct {
	MaxNumReaders     int `yaml:"max_num_readers"`
	BufferSizeMs      int `yaml:"buffer_size_ms"`
	PacketStatsWindow int `yaml:"packet_stats_window"`
}

// SenderConfig holds the C10 writer-side tunables (writer slot count,
// ring buffer size in ms, default TTL).
type SenderConfig struct {
	MaxNumWriters int `yaml:"max_num_writers"`
	BufferSizeMs  int `yaml:"buffer_size_ms"`
	DefaultTTL    int `yaml:"default_ttl"`
}

// NetworkConfig holds the C14 network thread's tunables (spec §6
// k_receive_timeout_ms).
type NetworkConfig struct {
	ReceiveTimeoutMs int64  `yaml:"receive_timeout_ms"`
	TickIntervalMs   int    `yaml:"tick_interval_ms"`
	Listen           string `yaml:"listen"`
}

// LoggingConfig configures the logging package (SPEC_FULL.md §10.1).
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig configures the metrics package's Prometheus/process
// gauges and the control surface's listen address (SPEC_FULL.md §11).
type MetricsConfig struct {
	Listen          string `yaml:"listen"`
	PublishInterval int    `yaml:"publish_interval_seconds"`
}

// MQTTConfig configures the optional MQTT stats feed (spec §6 "published
// statistics snapshots").
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

// Load reads and parses a YAML configuration file, applying defaults and
// validating profile_version (mirrors the teacher's LoadConfig).
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every zero-valued tunable with the spec §6 default
// the rest of the module already hard-codes as a package constant,
// mirroring the teacher's implicit zero-value defaulting.
func (c *Config) ApplyDefaults() {
	if c.ProfileVersion == "" {
		c.ProfileVersion = MinSupportedProfileVersion
	}

	if c.Receiver.MaxNumReaders == 0 {
		c.Receiver.MaxNumReaders = receiver.MaxNumReaders
	}
	if c.Receiver.BufferSizeMs == 0 {
		c.Receiver.BufferSizeMs = receiver.BufferSizeMs
	}
	if c.Receiver.PacketStatsWindow == 0 {
		c.Receiver.PacketStatsWindow = receiver.PacketStatsWindow
	}

	if c.Sender.MaxNumWriters == 0 {
		c.Sender.MaxNumWriters = sender.MaxNumWriters
	}
	if c.Sender.BufferSizeMs == 0 {
		c.Sender.BufferSizeMs = sender.BufferSizeMs
	}
	if c.Sender.DefaultTTL == 0 {
		c.Sender.DefaultTTL = sender.DefaultTTL
	}

	if c.Network.ReceiveTimeoutMs == 0 {
		c.Network.ReceiveTimeoutMs = netio.ReceiveTimeoutMs
	}
	if c.Network.TickIntervalMs == 0 {
		c.Network.TickIntervalMs = 1
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Metrics.PublishInterval == 0 {
		c.Metrics.PublishInterval = 5
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "aoipcore"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "aoipcore/streams"
	}
}

// Validate checks the configuration for load-time errors, mirroring the
// teacher's Config.Validate shape (explicit required-field and
// lower-bound checks, one fmt.Errorf per rule).
func (c *Config) Validate() error {
	if err := c.validateProfileVersion(); err != nil {
		return err
	}
	if c.Receiver.MaxNumReaders < 1 {
		return fmt.Errorf("receiver.max_num_readers must be at least 1")
	}
	if c.Sender.MaxNumWriters < 1 {
		return fmt.Errorf("sender.max_num_writers must be at least 1")
	}
	if c.Network.ReceiveTimeoutMs < 1 {
		return fmt.Errorf("network.receive_timeout_ms must be at least 1")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt.enabled is true")
	}
	return nil
}

// validateProfileVersion rejects a configured profile_version that names
// a newer revision than this build has been validated against
// (SPEC_FULL.md §10.3), using hashicorp/go-version the way a semver-like
// "aes67-1.0"-style tag is compared once its "aes67-" prefix is
// stripped to a bare version string.
func (c *Config) validateProfileVersion() error {
	got, err := parseProfileVersion(c.ProfileVersion)
	if err != nil {
		return fmt.Errorf("profile_version %q: %w", c.ProfileVersion, err)
	}
	max, err := parseProfileVersion(MaxSupportedProfileVersion)
	if err != nil {
		return fmt.Errorf("internal: max supported profile_version: %w", err)
	}
	if got.GreaterThan(max) {
		return fmt.Errorf("profile_version %q is newer than the %q this build supports", c.ProfileVersion, MaxSupportedProfileVersion)
	}
	return nil
}

func parseProfileVersion(s string) (*version.Version, error) {
	trimmed := s
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			trimmed = s[i+1:]
			break
		}
	}
	return version.NewVersion(trimmed)
}
