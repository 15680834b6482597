package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var output io.Writer = os.Stderr

// Setup configures the global zerolog logger. format "console" switches to
// human readable output; anything else keeps JSON lines. Unknown levels fall
// back to info.
func Setup(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
