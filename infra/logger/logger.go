package logger

import (
	"github.com/rs/zerolog"

	corelogger "github.com/sunpeak/dispatchd/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// New returns a Logger for the given component. The output format is chosen
// from the APP_ENV environment variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// SetLevel applies the configured global log level. Unknown levels are
// ignored.
func SetLevel(level string) {
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}
