// Package logging builds the process logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/parisxmas/formcraft/internal/config"
	"github.com/parisxmas/formcraft/internal/gelf"
)

const serviceName = "formcraft"

// New builds a zap logger from cfg. When a GELF address is configured,
// entries are also shipped there; a collector that cannot be dialed is
// reported on the returned logger and otherwise ignored.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	logger = logger.With(zap.String("service", serviceName))

	if cfg.GelfAddr == "" {
		return logger, nil
	}
	w, err := gelf.New(cfg.GelfAddr, serviceName)
	if err != nil {
		logger.Warn("gelf init failed", zap.String("addr", cfg.GelfAddr), zap.Error(err))
		return logger, nil
	}
	logger = WithGELF(logger, w, level)
	logger.Info("gelf logging enabled", zap.String("addr", cfg.GelfAddr))
	return logger, nil
}

// WithGELF tees every entry of logger into w as JSON.
func WithGELF(logger *zap.Logger, w zapcore.WriteSyncer, level zapcore.LevelEnabler) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.EpochTimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), w, level)
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	}))
}
