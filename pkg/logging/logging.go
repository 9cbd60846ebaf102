// Package logging builds the process logger. Output always goes to stderr;
// stdout is reserved for the MCP channel.
package logging

import (
	"fmt"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger, or a console development logger
// when debug is set.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// StdLogger adapts the logger for libraries that take a *log.Logger, such as
// the stdio transport's error logger.
func StdLogger(l *zap.SugaredLogger) *log.Logger {
	std, err := zap.NewStdLogAt(l.Desugar(), zapcore.ErrorLevel)
	if err != nil {
		return zap.NewStdLog(l.Desugar())
	}
	return std
}
