package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/doeshing/cmdcenter/internal/ports"
)

// ZeroLogger implements ports.Logger on top of zerolog.
type ZeroLogger struct {
	log zerolog.Logger
}

var _ ports.Logger = (*ZeroLogger)(nil)

// New creates a console logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) *ZeroLogger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	return &ZeroLogger{
		log: zerolog.New(output).
			Level(level).
			With().
			Timestamp().
			Str("app", "cmdcenter").
			Logger(),
	}
}

// NewStd creates a stderr logger. Verbose enables debug output; otherwise only
// warnings and errors are written.
func NewStd(verbose bool) *ZeroLogger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return New(os.Stderr, level)
}

// NewNop returns a logger that discards everything.
func NewNop() *ZeroLogger {
	return &ZeroLogger{log: zerolog.Nop()}
}

// ParseLevel maps a config level name to a zerolog level. Empty means warn.
func ParseLevel(value string) (zerolog.Level, error) {
	if strings.TrimSpace(value) == "" {
		return zerolog.WarnLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
}

// SetOutput redirects later messages to w, keeping the level. Call it before
// the logger is shared between goroutines.
func (l *ZeroLogger) SetOutput(w io.Writer) {
	l.log = New(w, l.log.GetLevel()).log
}

func (l *ZeroLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Error(msg string, err error, fields map[string]interface{}) {
	l.log.Error().Err(err).Fields(fields).Msg(msg)
}
