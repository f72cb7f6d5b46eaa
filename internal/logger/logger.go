// ABOUTME: Thin zerolog wrapper shared by the store, autosave, and CLI.
// ABOUTME: Provides file and writer constructors plus a badger logging adapter.

package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Logger embeds zerolog.Logger so the full zerolog API is available.
type Logger struct {
	zerolog.Logger
	out io.Closer
}

// New returns a JSON logger writing to w at the given level.
// Unknown levels fall back to info.
func New(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	l := zerolog.New(w).Level(lvl).With().
		Str("app", "cookbook").
		Timestamp().
		Logger()
	return &Logger{Logger: l}
}

// NewFile opens (or creates) the log file at path and returns a logger
// appending to it. If the file cannot be opened, logs go to stderr.
func NewFile(path, level string) *Logger {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return New(os.Stderr, level)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // Path comes from our own config
	if err != nil {
		return New(os.Stderr, level)
	}
	l := New(f, level)
	l.out = f
	return l
}

// Close closes the log file opened by NewFile. It is a no-op for other
// loggers and safe to call more than once.
func (l *Logger) Close() error {
	if l == nil || l.out == nil {
		return nil
	}
	err := l.out.Close()
	l.out = nil
	return err
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.With().Str("component", name).Logger()}
}

// Badger adapts the logger to badger's Logger interface.
func (l *Logger) Badger() *BadgerLogger {
	return &BadgerLogger{l: l.Component("badger")}
}

// BadgerLogger routes badger's printf-style logging into zerolog.
type BadgerLogger struct {
	l *Logger
}

func (b *BadgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b *BadgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b *BadgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b *BadgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Trace().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
