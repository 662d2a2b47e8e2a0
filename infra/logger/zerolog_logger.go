package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/feederwatch/core/logger"
)

const service = "feederwatch"

var forceConsole atomic.Bool

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger writes JSON lines to stdout tagged with service and
// component. APP_ENV=dev or Configure(..., true) switches to the console
// writer.
func NewZerologLogger(component string) Logger {
	return newZerolog(os.Stdout, component, useConsole())
}

func useConsole() bool {
	return strings.ToLower(os.Getenv("APP_ENV")) == "dev" || forceConsole.Load()
}

func newZerolog(out io.Writer, component string, console bool) *ZerologLogger {
	var z zerolog.Logger
	if console {
		z = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		z = zerolog.New(out)
	}
	z = z.With().Timestamp().Str("service", service).Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields corelogger.Fields) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Infow(msg string, fields corelogger.Fields) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

func (l *ZerologLogger) Errorw(msg string, err error, fields corelogger.Fields) {
	l.log.Error().Err(err).Fields(fields).Msg(msg)
}
