package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ravennakit-go/aoipcore/config"
	"github.com/ravennakit-go/aoipcore/logging"
)

func TestNewWritesJSONLinesToConfiguredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aoipcore.log")

	logger, err := logging.New(config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	tagged := logging.WithComponent(logger, "receiver")
	tagged.Info("stream started", zap.Uint64("reader_id", 7))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"component":"receiver"`)
	require.Contains(t, string(data), `"reader_id":7`)
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := logging.New(config.LoggingConfig{Level: "not-a-level"})
	require.Error(t, err)
}
