// Package logging adapts zap to the reportapi.Logger contract so modules
// and the runner log through one structured backend.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"seqreport/pkg/reportapi"
)

// Options mirrors the logging section of the run configuration.
type Options struct {
	Level       string // debug, info, warn or error; default info
	Development bool
}

// New builds a zap-backed logger. The returned flush function must be called
// before process exit.
func New(opts Options) (reportapi.Logger, func(), error) {
	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	z, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return FromZap(z), func() { _ = z.Sync() }, nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) reportapi.Logger {
	return &zapLogger{s: z.Sugar()}
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l *zapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
