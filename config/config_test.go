package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/config"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aoipcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, "profile_version: aes67-1.0\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, 16, cfg.Receiver.MaxNumReaders)
	require.Equal(t, 16, cfg.Sender.MaxNumWriters)
	require.Equal(t, int64(1000), cfg.Network.ReceiveTimeoutMs)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "aoipcore", cfg.MQTT.ClientID)
}

func TestLoadRejectsNewerProfileVersion(t *testing.T) {
	path := writeTempConfig(t, "profile_version: aes67-99.0\n")

	_, err := config.Load(path)
	require.ErrorContains(t, err, "newer than")
}

func TestLoadRejectsUnparsableProfileVersion(t *testing.T) {
	path := writeTempConfig(t, "profile_version: not-a-version\n")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestValidateRejectsMQTTEnabledWithoutBroker(t *testing.T) {
	cfg := &config.Config{ProfileVersion: config.MinSupportedProfileVersion}
	cfg.ApplyDefaults()
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = ""

	require.ErrorContains(t, cfg.Validate(), "mqtt.broker")
}

func TestValidateRejectsZeroMaxNumReaders(t *testing.T) {
	cfg := &config.Config{ProfileVersion: config.MinSupportedProfileVersion}
	cfg.ApplyDefaults()
	cfg.Receiver.MaxNumReaders = 0

	require.ErrorContains(t, cfg.Validate(), "max_num_readers")
}
