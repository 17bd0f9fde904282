package accounts

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ZeroLogger adapts a zerolog.Logger to Logger
type ZeroLogger struct {
	l zerolog.Logger
}

// NewLogger returns a JSON logger writing to stderr tagged with component
func NewLogger(component, level string) *ZeroLogger {
	return NewLoggerWithWriter(os.Stderr, component, level)
}

// NewLoggerWithWriter returns a JSON logger writing to w
func NewLoggerWithWriter(w io.Writer, component, level string) *ZeroLogger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	l := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("component", component).
		Logger()

	return &ZeroLogger{l: l}
}

// FromZerolog wraps an existing zerolog.Logger
func FromZerolog(l zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{l: l}
}

func (z *ZeroLogger) Debug(msg string, args ...any) {
	z.l.Debug().Fields(args).Msg(msg)
}

func (z *ZeroLogger) Info(msg string, args ...any) {
	z.l.Info().Fields(args).Msg(msg)
}

func (z *ZeroLogger) Warn(msg string, args ...any) {
	z.l.Warn().Fields(args).Msg(msg)
}

func (z *ZeroLogger) Error(msg string, args ...any) {
	z.l.Error().Fields(args).Msg(msg)
}

var _ Logger = (*ZeroLogger)(nil)

func defLogger(component string) Logger {
	return NewLogger(component, "info")
}
