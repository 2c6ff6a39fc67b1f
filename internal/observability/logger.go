// Package observability builds the process logger and the HTTP metrics
// and tracing middleware used by the API server.
package observability

import (
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xob0t/GoPoster/internal/config"
)

// Module provides *zap.Logger and *HTTPMetrics.
var Module = fx.Module("observability",
	fx.Provide(
		NewLogger,
		NewHTTPMetrics,
	),
)

// NewLogger builds a zap logger from the log section of cfg.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	lc := cfg.Log
	base := zap.NewProductionConfig()
	if lc.Development {
		base = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(strings.TrimSpace(lc.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	base.Level = zap.NewAtomicLevelAt(level)
	if lc.Encoding != "" {
		base.Encoding = lc.Encoding
	}

	logger, err := base.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.With(zap.String("service", cfg.ServiceName)), nil
}
