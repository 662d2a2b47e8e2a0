package logger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/feederwatch/core/logger"
)

// Logger is the core interface, aliased so callers import one package.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)                   {}
func (NopLogger) Debugw(string, corelogger.Fields)        {}
func (NopLogger) Infof(string, ...any)                    {}
func (NopLogger) Infow(string, corelogger.Fields)         {}
func (NopLogger) Warnf(string, ...any)                    {}
func (NopLogger) Errorf(string, ...any)                   {}
func (NopLogger) Errorw(string, error, corelogger.Fields) {}

// New returns a Logger for the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// Configure sets the process-wide level. console forces the human-readable
// writer for loggers created afterwards.
func Configure(level string, console bool) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return fmt.Errorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	forceConsole.Store(console)
	return nil
}
