// Package logging builds the zap logger used across the service from LogConfig.
//
// Package logging 根据LogConfig构建服务中使用的zap日志记录器。
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yourusername/shopfront/configs"
)

// New builds a logger from the log section of the configuration.
// The returned AtomicLevel can be changed later (e.g. on config hot reload).
//
// New 根据配置的日志部分构建日志记录器。
// 返回的AtomicLevel之后可以更改（例如在配置热重载时）。
//
// Parameters:
//   - cfg: The log configuration
//   - verbose: Forces debug level when true
//
// Returns:
//   - *zap.Logger: The logger
//   - zap.AtomicLevel: The level handle of the logger
//   - error: An error if the configuration cannot be applied
func New(cfg configs.LogConfig, verbose bool) (*zap.Logger, zap.AtomicLevel, error) {
	zc := zap.NewProductionConfig()

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	switch cfg.Format {
	case "console":
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	case "json", "":
		zc.Encoding = "json"
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, zap.AtomicLevel{}, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	switch cfg.Output {
	case "stdout", "":
		zc.OutputPaths = []string{"stdout"}
	case "stderr":
		zc.OutputPaths = []string{"stderr"}
	case "file":
		zc.OutputPaths = []string{cfg.FilePath}
	default:
		return nil, zap.AtomicLevel{}, fmt.Errorf("unknown log output %q", cfg.Output)
	}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, zc.Level, nil
}

// ParseLevel maps "debug", "info", "warn" and "error" to zap levels.
//
// ParseLevel 将"debug"、"info"、"warn"和"error"映射到zap级别。
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Named returns a child logger, or a no-op logger when parent is nil.
//
// Named 返回子日志记录器，parent为nil时返回空操作日志记录器。
func Named(parent *zap.Logger, name string) *zap.Logger {
	if parent == nil {
		return zap.NewNop()
	}
	return parent.Named(name)
}
