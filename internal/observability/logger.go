// internal/observability/logger.go
package observability

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogLevel = "info"

// NewLogger constructs a zap logger emitting structured JSON at the given level.
// An empty or invalid level falls back to info.
func NewLogger(level string) (*zap.Logger, error) {
	atomic := zap.NewAtomicLevel()
	if err := atomic.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil || strings.TrimSpace(level) == "" {
		_ = atomic.UnmarshalText([]byte(defaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		NameKey:    "logger",
		EncodeTime: zapcore.RFC3339TimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		EncodeDuration: zapcore.StringDurationEncoder,
		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		StacktraceKey:  "stacktrace",
	}

	cfg := zap.Config{
		Level:             atomic,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	return cfg.Build()
}
