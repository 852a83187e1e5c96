package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process-wide sugared logger.
func New(debug bool) (*zap.SugaredLogger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.NewProductionConfig()
	config.EncoderConfig = encoderConfig
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// NewNop returns a logger that discards everything. Handy in tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
