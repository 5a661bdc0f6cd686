package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the logging interface used throughout the application
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	SetLevel(level zapcore.Level)
	GetLevel() zapcore.Level
	EnableHTTPLogging()
	DisableHTTPLogging()
	IsHTTPLoggingEnabled() bool
}

// ZapLogger wraps a sugared zap logger to implement our Logger interface.
// Args are alternating key/value pairs.
type ZapLogger struct {
	sugar       *zap.SugaredLogger
	level       zap.AtomicLevel
	httpLogging atomic.Bool
}

// New creates a new ZapLogger with default settings (info level)
func New() *ZapLogger {
	return NewWithLevel(zapcore.InfoLevel)
}

// NewWithLevel creates a new ZapLogger writing to stdout with a specific level
func NewWithLevel(level zapcore.Level) *ZapLogger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a ZapLogger writing console-encoded lines to w
func NewWithWriter(w io.Writer, level zapcore.Level) *ZapLogger {
	atom := zap.NewAtomicLevelAt(level)

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), atom)
	return &ZapLogger{
		sugar: zap.New(core).Sugar(),
		level: atom,
	}
}

// NewNop returns a logger that discards everything
func NewNop() *ZapLogger {
	return &ZapLogger{
		sugar: zap.NewNop().Sugar(),
		level: zap.NewAtomicLevelAt(zapcore.InfoLevel),
	}
}

// ParseLevel converts a string log level to a zap level.
// Accepts: debug, info, warn, error (case-insensitive).
// Returns zapcore.InfoLevel if the level is not recognized.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *ZapLogger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *ZapLogger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *ZapLogger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

// Sync flushes buffered output
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// SetLevel changes the logging level dynamically
func (l *ZapLogger) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

// GetLevel returns the current logging level
func (l *ZapLogger) GetLevel() zapcore.Level {
	return l.level.Level()
}

// EnableHTTPLogging enables HTTP request logging
func (l *ZapLogger) EnableHTTPLogging() {
	l.httpLogging.Store(true)
}

// DisableHTTPLogging disables HTTP request logging
func (l *ZapLogger) DisableHTTPLogging() {
	l.httpLogging.Store(false)
}

// IsHTTPLoggingEnabled returns whether HTTP logging is enabled
func (l *ZapLogger) IsHTTPLoggingEnabled() bool {
	return l.httpLogging.Load()
}
