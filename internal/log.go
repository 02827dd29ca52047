// Package internal carries the ambient concerns shared by the engine and its
// surfaces: the leveled logger.
package internal

import (
	"io"
	"log"
	"os"
	"strings"
)

// Level is the logging verbosity cutoff.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
)

// ParseLevel maps a LOG_LEVEL value to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN":
		return LevelWarn
	default:
		return LevelInfo
	}
}

// Logger writes leveled printf-style lines. Messages above the configured
// level are dropped.
type Logger struct {
	level Level
	out   *log.Logger
}

// NewLogger writes to w at the given level.
func NewLogger(w io.Writer, level Level) *Logger {
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

func (l *Logger) write(level Level, tag, format string, args ...interface{}) {
	if level <= l.level {
		l.out.Printf(tag+" "+format, args...)
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, "[ERROR]", format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(LevelWarn, "[WARN]", format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "[INFO]", format, args...)
}

// DefaultLogger reads LOG_LEVEL from the environment and writes to stderr.
var DefaultLogger = NewLogger(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))
