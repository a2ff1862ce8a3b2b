package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger from SNAPGRADE_LOG_LEVEL (debug, info,
// warn, error; default info). Local runs get a human-readable
// ConsoleWriter on stderr. Inside Lambda the zerolog JSON default is kept,
// since CloudWatch ingests one JSON event per line and the EMF recorder
// already owns stdout.
func Init() {
	zerolog.SetGlobalLevel(parseLevel(os.Getenv("SNAPGRADE_LOG_LEVEL")))

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
