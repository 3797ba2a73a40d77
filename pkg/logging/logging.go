// Package logging provides structured logging utilities using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LevelEnvVar names the environment variable that selects the log level.
const LevelEnvVar = "ZBX_IMPORT_LOG_LEVEL"

// InitLogger initializes and configures a zerolog Logger writing to stderr.
// It reads the log level from the levelOverride parameter or ZBX_IMPORT_LOG_LEVEL environment variable.
// If neither is set, it defaults to INFO level.
func InitLogger(levelOverride string) zerolog.Logger {
	return NewLogger(os.Stderr, levelOverride)
}

// NewLogger is InitLogger with an explicit destination.
func NewLogger(out io.Writer, levelOverride string) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: out}
	logger := zerolog.New(output).With().Timestamp().Logger()
	var loglevelString string
	if levelOverride != "" {
		loglevelString = levelOverride
	} else {
		loglevelString = os.Getenv(LevelEnvVar)
	}
	if loglevelString == "" {
		// default to info
		loglevelString = "info"
	}
	level, err := zerolog.ParseLevel(strings.ToLower(loglevelString))
	if err != nil || level == zerolog.NoLevel {
		logger.Info().Msg("Invalid log level, defaulting to INFO")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)
	logger.Debug().Msg("Logger initialized to " + strings.ToUpper(level.String()))
	return logger
}
