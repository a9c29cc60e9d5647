// Package logger builds the zap.SugaredLogger instances used throughout the
// engine, its background workers, and the cmd/ front ends.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how a logger is constructed.
type Config struct {
	// Service names the component the logger belongs to. New does not read
	// it: the "service" field on every log line comes from New's service
	// argument.
	Service string

	// Development selects a human-readable console encoder with debug level
	// enabled. Production selects a JSON encoder at info level.
	Development bool
}

// New builds a *zap.SugaredLogger for service, honoring cfg.Development.
func New(service string, cfg Config) (*zap.SugaredLogger, error) {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	base, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return base.With(zap.String("service", service)).Sugar(), nil
}

// NewNop returns a logger that discards everything, used in tests and as a
// safe default when no logger is supplied through options.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
