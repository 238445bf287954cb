// Package logging constructs the module's shared *zap.Logger, the
// richer structured-logging dependency the retrieval pack reaches for
// (BT-Bridge-openai-realtime's shared.NewStdLogger/NewFileLogger)
// instead of the teacher's bare "log" package (SPEC_FULL.md §10.1).
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ravennakit-go/aoipcore/config"
)

// New builds a *zap.Logger from cfg.Logging: JSON-encoded production
// config to stderr, or to a rotating file via lumberjack when cfg.File
// is set - mirroring BT-Bridge's NewStdLogger/NewFileLogger split,
// collapsed into one constructor that picks a sink from config instead
// of two separate exported functions.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("logging: parse level %q: %w", cfg.Level, err)
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	var sink zapcore.WriteSyncer
	if cfg.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	} else {
		sink = zapcore.Lock(zapcore.AddSync(os.Stderr))
	}

	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core, zap.AddCaller()), nil
}

// WithComponent tags logger with a "component" field, used throughout
// the module so every log line identifies which subsystem emitted it
// (receiver, sender, netio, control, metrics), per SPEC_FULL.md §10.1.
func WithComponent(logger *zap.Logger, name string) *zap.Logger {
	return logger.With(zap.String("component", name))
}
