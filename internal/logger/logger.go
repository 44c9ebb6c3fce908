package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs a console logger at the given level as the global zerolog
// logger. Unknown levels fall back to info.
func Setup(level string) zerolog.Logger {
	return SetupWriter(os.Stderr, level)
}

func SetupWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: w != os.Stderr}
	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()

	log.Logger = l
	zerolog.DefaultContextLogger = &l

	return l
}

// Component returns a child of the global logger tagged with name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
