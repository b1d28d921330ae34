package log

import (
	"io"
	"os"
	"time"

	"github.com/ipfans/fxlogger"
	"github.com/j0lvera/askrelay/internal/config"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// NewLogger creates a configured zerolog.Logger instance
func NewLogger(cfg *config.Config) zerolog.Logger {
	return newLogger(os.Stdout, cfg.LogLevel)
}

func newLogger(out io.Writer, levelName string) zerolog.Logger {
	logWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	level, err := zerolog.ParseLevel(levelName)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if os.Getenv("DEBUG") == "true" {
		level = zerolog.DebugLevel
	}

	return zerolog.New(logWriter).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// NewEventLogger routes fx's own lifecycle events through the app logger.
func NewEventLogger(logger zerolog.Logger) fxevent.Logger {
	return fxlogger.WithZerolog(logger)()
}

// Module provides the application logger
func Module() fx.Option {
	return fx.Module(
		"log",
		fx.Provide(
			NewLogger,
		),
	)
}
