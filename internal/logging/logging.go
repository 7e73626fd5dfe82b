// Package logging builds the zap loggers used by bat-cli commands.
package logging

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a supported log level name.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format is a supported log output format.
type Format string

const (
	FormatStructured Format = "structured"
	FormatConsole    Format = "console"
)

var (
	ErrUnsupportedLevel  = errors.New("unsupported log level")
	ErrUnsupportedFormat = errors.New("unsupported log format")
)

var levels = map[Level]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
}

var encodings = map[Format]string{
	FormatStructured: "json",
	FormatConsole:    "console",
}

// ParseLevel maps a level name to its zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	l, ok := levels[Level(s)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedLevel, s)
	}
	return l, nil
}

// ParseFormat maps a format name to its zap encoding.
func ParseFormat(s string) (string, error) {
	enc, ok := encodings[Format(s)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return enc, nil
}

// Factory builds loggers writing to OutputPaths.
type Factory struct {
	OutputPaths []string
}

// NewFactory returns a Factory that logs to stderr.
func NewFactory() *Factory {
	return &Factory{OutputPaths: []string{"stderr"}}
}

// New builds a production zap logger with the requested level and format.
func (f *Factory) New(level, format string) (*zap.Logger, error) {
	zl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	enc, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.Encoding = enc
	if enc == "console" {
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	if len(f.OutputPaths) > 0 {
		cfg.OutputPaths = f.OutputPaths
		cfg.ErrorOutputPaths = f.OutputPaths
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
