/*
Package logx provides a structured logging wrapper based on zerolog.

It initializes the process-wide logger, selects the output format (console for
development, JSON otherwise), and exposes small helpers for the common levels.
*/
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger configures the global zerolog instance.
// Development mode logs at Debug level through a human-readable console writer;
// otherwise logs are emitted as JSON at Info level. All entries carry a Unix
// timestamp and caller information.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns the global zerolog.Logger. Components derive child loggers
// from it via With().
func Logger() *zerolog.Logger {
	return &log.Logger
}

// fieldPairs rejects an odd-length key-value list so zerolog never panics on it.
func fieldPairs(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Str("log_level", level).
			Int("fields_count", len(fields)).
			Msg("Logx helper received odd number of fields. Fields ignored.")
		return nil
	}
	return fields
}

// Info records a message at the Info level with optional key-value fields.
func Info(msg string, fields ...any) {
	Logger().Info().
		Fields(fieldPairs("Info", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Warn records a message at the Warn level with optional key-value fields.
func Warn(msg string, fields ...any) {
	Logger().Warn().
		Fields(fieldPairs("Warn", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Error records an error and message at the Error level.
func Error(err error, msg string, fields ...any) {
	Logger().Error().
		Err(err).
		Fields(fieldPairs("Error", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Fatal records an error at the Fatal level and then terminates the process.
func Fatal(err error, msg string, fields ...any) {
	Logger().Fatal().
		Err(err).
		Fields(fieldPairs("Fatal", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}
