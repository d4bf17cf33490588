package common

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger to provide a consistent interface.
type Logger struct {
	zerolog.Logger
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new console logger with the specified level.
func NewLogger(level string) *Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	logger := zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// NewLoggerFromConfig creates a logger from the logging configuration.
// Format "json" writes structured JSON to stderr; anything else gets the
// console writer.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	var w io.Writer = os.Stderr
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(w).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// NewLoggerWithOutput creates a logger writing to a specific output.
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	logger := zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// NewDefaultLogger creates a logger with default settings.
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// NewSilentLogger creates a logger that discards all output.
func NewSilentLogger() *Logger {
	logger := zerolog.New(io.Discard)
	return &Logger{Logger: logger}
}
