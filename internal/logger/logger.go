/*

Process-wide zerolog setup. Initialize is called once from each entrypoint;
components then derive tagged loggers via GetForComponent so season sweeps
can be filtered by subsystem.

*/

package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// serviceName tags every line so engine logs are separable from the other
// protocol services feeding the same collector.
const serviceName = "gauged"

// Logger is the root logger instance.
var Logger zerolog.Logger

// Initialize sets up the root logger. LOG_FORMAT=json emits raw JSON lines
// for collectors; anything else gets the human-readable console writer.
func Initialize(logLevel string) {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		out = os.Stdout
	}

	Logger = zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()

	switch strings.ToLower(logLevel) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Route the package-level zerolog logger through the same sink.
	log.Logger = Logger
}

// GetForComponent returns a logger tagged with a component field for
// filtering.
func GetForComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
