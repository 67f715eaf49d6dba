package logger

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	Environment string
	ServiceName string
	Level       string
}

// New builds the process-wide zap logger and installs it as the global.
func New(cfg Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if strings.EqualFold(cfg.Environment, "development") {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level := strings.TrimSpace(cfg.Level); level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err == nil {
			zapCfg.Level = zap.NewAtomicLevelAt(parsed)
		}
	}

	log, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		log = log.With(zap.String("service", name))
	}
	zap.ReplaceGlobals(log)
	return log, nil
}

// FromContext returns the global logger enriched with trace identifiers.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if ctx == nil {
		return log
	}
	span := trace.SpanContextFromContext(ctx)
	if span.HasTraceID() {
		log = log.With(zap.String("trace_id", span.TraceID().String()))
	}
	if span.HasSpanID() {
		log = log.With(zap.String("span_id", span.SpanID().String()))
	}
	return log
}
